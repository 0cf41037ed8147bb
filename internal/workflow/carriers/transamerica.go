package carriers

import (
	"context"
	"fmt"
	"strings"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// Transamerica collects from the Transamerica agent portal. Statement links
// require the session's cookies to resolve, so the routine downloads through
// the session instead of handing URLs to the pipeline.
func Transamerica(ctx context.Context, sess browser.Session, job *types.Job) (*workflow.Result, error) {
	if err := signIn(ctx, sess, job); err != nil {
		return nil, err
	}
	if result, err := confirmLogin(ctx, sess); err != nil || result != nil {
		return result, err
	}

	if err := sess.Act(ctx, "click the Commissions link in the sidebar"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}

	var list statementList
	err := sess.Extract(ctx,
		"List every commission statement in the Documents section. Return each "+
			"statement's date and the URL of its download link.",
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
		filename := fmt.Sprintf("statement-%s.pdf", strings.ReplaceAll(row.Date, "/", "-"))
		statements = append(statements, workflow.ByBytes(row.Date, filename, data))
	}

	return workflow.Successful(statements), nil
}
