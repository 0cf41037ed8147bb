package carriers

import (
	"context"
	"fmt"
	"strings"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// GuardianLife collects from the Guardian producer portal. Guardian publishes
// commission detail as Excel exports rather than PDFs; the export link is
// authenticated, so the routine downloads it through the session.
func GuardianLife(ctx context.Context, sess browser.Session, job *types.Job) (*workflow.Result, error) {
	if err := signIn(ctx, sess, job); err != nil {
		return nil, err
	}
	if result, err := confirmLogin(ctx, sess); err != nil || result != nil {
		return result, err
	}

	if err := sess.Act(ctx, "click the Compensation Statements link"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}

	var list statementList
	err := sess.Extract(ctx,
		"List the compensation statement periods shown. Return each period's "+
			"statement date and the URL of its Export to Excel link.",
		statementListSchema, &list)
	if err != nil {
		return nil, err
	}

	statements := make([]workflow.Statement, 0, len(list.Statements))
	for _, row := range list.Statements {
		if row.URL == "" {
			continue
		}
		data, err := sess.DownloadURL(ctx, row.URL)
		if err != nil {
			return workflow.Failuref("Statement %s unavailable: %v", row.Date, err), nil
		}
		filename := fmt.Sprintf("commissions-%s.xlsx", strings.ReplaceAll(row.Date, "/", "-"))
		statements = append(statements, workflow.ByBytes(row.Date, filename, data))
	}

	return workflow.Successful(statements), nil
}
