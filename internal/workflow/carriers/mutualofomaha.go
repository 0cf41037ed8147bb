package carriers

import (
	"context"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// MutualOfOmaha collects from the Mutual of Omaha sales professional access
// portal. The login form submits on Enter from the password field instead of
// exposing a reliable button, so the routine does its own sign-in sequence.
func MutualOfOmaha(ctx context.Context, sess browser.Session, job *types.Job) (*workflow.Result, error) {
	if err := sess.Goto(ctx, job.Credential.LoginURL); err != nil {
		return nil, err
	}
	if err := sess.Act(ctx, "type "+job.Credential.Username+" into the Producer ID field"); err != nil {
		return nil, err
	}
	if err := sess.Act(ctx, "type the password into the Password field and press Enter: "+job.Credential.Password); err != nil {
		return nil, err
	}
	if result, err := confirmLogin(ctx, sess); err != nil || result != nil {
		return result, err
	}

	if err := sess.Act(ctx, "click Commissions under the Reports heading"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}

	var list statementList
	err := sess.Extract(ctx,
		"List the commission statements shown. Return each statement's date "+
			"and the URL behind its PDF icon.",
		statementListSchema, &list)
	if err != nil {
		return nil, err
	}

	return workflow.Successful(asReferences(list.Statements)), nil
}
