package carriers

import (
	"context"
	"fmt"

	"github.com/brokerops/statement-collector/internal/browser"
	"github.com/brokerops/statement-collector/internal/types"
	"github.com/brokerops/statement-collector/internal/workflow"
)

// MutualTrust collects from the Mutual Trust Life agent portal. The statement
// list renders as a cluster of similarly-labeled links rather than a table,
// so the routine observes the links and clicks each one, capturing the PDF
// the portal streams back.
func MutualTrust(ctx context.Context, sess browser.Session, job *types.Job) (*workflow.Result, error) {
	if err := signIn(ctx, sess, job); err != nil {
		return nil, err
	}
	if result, err := confirmLogin(ctx, sess); err != nil || result != nil {
		return result, err
	}

	if err := sess.Act(ctx, "click the Compensation link"); err != nil {
		return workflow.Failuref("Statements page unavailable: %v", err), nil
	}

	candidates, err := sess.Observe(ctx, "find every commission statement link; their labels are statement dates")
	if err != nil {
		return nil, err
	}

	statements := make([]workflow.Statement, 0, len(candidates))
	for _, link := range candidates {
		if err := sess.Act(ctx, fmt.Sprintf("click the link labeled %q", link.Text)); err != nil {
			return workflow.Failuref("Statement %s unavailable: %v", link.Text, err), nil
		}
		data, filename, err := sess.WaitForPDF(ctx, pdfWait)
		if err != nil {
			return workflow.Failuref("Timed out waiting for statement %s: %v", link.Text, err), nil
		}
		statements = append(statements, workflow.ByBytes(link.Text, filename, data))
	}

	return workflow.Successful(statements), nil
}
