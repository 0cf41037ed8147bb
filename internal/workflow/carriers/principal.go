package carriers

import (
	"context"
	"fmt"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// Principal collects from the Principal advisor portal. Every account here
// has device verification enabled, so a fresh headless session always lands
// on the verification-code screen; the routine detects it and reports rather
// than guessing.
func Principal(ctx context.Context, sess browser.Session, job *types.Job) (*workflow.Result, error) {
	if err := signIn(ctx, sess, job); err != nil {
		return nil, err
	}
	if result, err := confirmLogin(ctx, sess); err != nil || result != nil {
		return result, err
	}

	if err := sess.Act(ctx, "click the Commission & fee statements link"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}

	var list statementList
	err := sess.Extract(ctx,
		"List the statement rows in the table. Return each statement's date; "+
			"leave url empty, the rows open documents inline.",
		statementListSchema, &list)
	if err != nil {
		return nil, err
	}

	statements := make([]workflow.Statement, 0, len(list.Statements))
	for _, row := range list.Statements {
		if err := sess.Act(ctx, fmt.Sprintf("click the View link on the statement dated %s", row.Date)); err != nil {
			return workflow.Failuref("Statement %s unavailable: %v", row.Date, err), nil
		}
		data, filename, err := sess.WaitForPDF(ctx, pdfWait)
		if err != nil {
			return workflow.Failuref("Timed out waiting for statement %s: %v", row.Date, err), nil
		}
		statements = append(statements, workflow.ByBytes(row.Date, filename, data))
	}

	return workflow.Successful(statements), nil
}
