package carriers

import (
	"context"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// Protective collects from the Protective Life producer portal. Protective
// expires passwords every ninety days and blocks everything behind the reset
// screen, so the login-state check here matters more than for most carriers.
func Protective(ctx context.Context, sess browser.Session, job *types.Job) (*workflow.Result, error) {
	if err := signIn(ctx, sess, job); err != nil {
		return nil, err
	}
	if result, err := confirmLogin(ctx, sess); err != nil || result != nil {
		return result, err
	}

	if err := sess.Act(ctx, "click Commission Accounting in the main menu"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}
	if err := sess.Act(ctx, "click the Statements tab"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}

	var list statementList
	err := sess.Extract(ctx,
		"List the commission statement rows. Return each statement's date and "+
			"the URL of its PDF link.",
		statementListSchema, &list)
	if err != nil {
		return nil, err
	}

	return workflow.Successful(asReferences(list.Statements)), nil
}
