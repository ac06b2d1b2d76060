// Prompt construction for the feedback loop.

package loop

import (
	"context"
	"fmt"
	"strings"

	"github.com/emrtools/fhirloop/sandbox"
)

// systemPrompt frames every generation call. Generated code runs inside
// the sandbox with only the fhirtool capability package available.
const systemPrompt = `You are a Go expert. Write code to solve the given task.
Do not include any explanations, only output valid Go code.

The sandbox provides a package named fhirtool:
  fhirtool.Client   - FHIR client: GetPatient(ctx, id), Fetch(ctx, resourceType, id)
  fhirtool.Explorer - ExploreStructure(ctx, resourceType), GetRelationships(ctx, id, resourceType)

Only a small standard library subset is available (fmt, strings, strconv,
encoding/json, sort, time, errors, context, and similar). Define a
zero-argument func main() as the entry point.`

// buildPrompt assembles the prompt for one attempt: the task itself,
// the prior attempt's failure when there was one, and any learned
// patterns the recorder holds for this task or that failure's class.
func (c *Controller) buildPrompt(ctx context.Context, task string, lastFailure *sandbox.Outcome) string {
	var b strings.Builder
	b.WriteString(task)

	if lastFailure != nil {
		fmt.Fprintf(&b, "\n\nYour previous attempt failed with %s: %s\nFix the error and return the corrected code.",
			lastFailure.Class, lastFailure.Message)
	}

	if c.rec == nil {
		return b.String()
	}

	if pattern, ok := c.rec.BestPattern(ctx, task); ok {
		fmt.Fprintf(&b, "\n\nA previously successful solution for this task:\n%s", pattern)
	}
	if lastFailure != nil {
		if fix, ok := c.rec.ErrorFix(ctx, lastFailure.Class); ok {
			fmt.Fprintf(&b, "\n\nCode that previously fixed a %s error:\n%s", lastFailure.Class, fix)
		}
	}

	return b.String()
}
