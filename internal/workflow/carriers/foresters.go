package carriers

import (
	"context"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// Foresters collects from the Foresters Financial producer site.
func Foresters(ctx context.Context, sess browser.Session, job *types.Job) (*workflow.Result, error) {
	if err := signIn(ctx, sess, job); err != nil {
		return nil, err
	}
	if result, err := confirmLogin(ctx, sess); err != nil || result != nil {
		return result, err
	}

	if err := sess.Act(ctx, "click the My Business menu"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}
	if err := sess.Act(ctx, "click the Commission Statements link"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}

	var list statementList
	err := sess.Extract(ctx,
		"List every commission statement row. Return each statement's date "+
			"and the URL of its Download link.",
		statementListSchema, &list)
	if err != nil {
		return nil, err
	}

	return workflow.Successful(asReferences(list.Statements)), nil
}
