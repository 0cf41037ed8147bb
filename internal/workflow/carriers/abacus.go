package carriers

import (
	"context"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// Abacus collects from the Abacus producer portal. Statements are listed in a
// single table with direct PDF links.
func Abacus(ctx context.Context, sess browser.Session, job *types.Job) (*workflow.Result, error) {
	if err := signIn(ctx, sess, job); err != nil {
		return nil, err
	}
	if result, err := confirmLogin(ctx, sess); err != nil || result != nil {
		return result, err
	}

	if err := sess.Act(ctx, "click the Commission Statements link in the navigation menu"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}

	var list statementList
	err := sess.Extract(ctx,
		"List every commission statement row in the table. For each row return "+
			"the statement date and the URL of its PDF download link.",
		statementListSchema, &list)
	if err != nil {
		return nil, err
	}

	return workflow.Successful(asReferences(list.Statements)), nil
}
