package dispatch

import (
	"fmt"

	"github.com/ShayCichocki/sot/pkg/models"
)

// pointPrompt asks the backend to elaborate one point, with the whole outline as context.
const pointPrompt = `You're responsible for continuing the writing of one and only one point in the overall answer to the following question.

Question:
%s

The skeleton of the answer is
%s

Continue and only continue the writing of point %s
Expand on it and do not continue with other points!`

// PointPrompt builds the self-contained elaboration prompt for p.
func PointPrompt(query, outline string, p models.Point) string {
	return fmt.Sprintf(pointPrompt, query, outline, p.String())
}
