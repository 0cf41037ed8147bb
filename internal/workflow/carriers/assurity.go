package carriers

import (
	"context"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// Assurity collects from the Assurity agent center. Statements live under
// Reports > Commission Statements, paginated but with the newest page first,
// so one page is enough for a collection period.
func Assurity(ctx context.Context, sess browser.Session, job *types.Job) (*workflow.Result, error) {
	if err := signIn(ctx, sess, job); err != nil {
		return nil, err
	}
	if result, err := confirmLogin(ctx, sess); err != nil || result != nil {
		return result, err
	}

	if err := sess.Act(ctx, "click the Reports menu"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}
	if err := sess.Act(ctx, "click the Commission Statements menu item"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}

	var list statementList
	err := sess.Extract(ctx,
		"List the commission statement rows on this page, newest first. Return "+
			"each statement's date and the URL of its View PDF link.",
		statementListSchema, &list)
	if err != nil {
		return nil, err
	}

	return workflow.Successful(asReferences(list.Statements)), nil
}
