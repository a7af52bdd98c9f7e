package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// Interpreter implements ports.FailureOracle: it asks the model what a
// failed upload response actually requires.
type Interpreter struct {
	client *Client
}

func NewInterpreter(client *Client) *Interpreter {
	return &Interpreter{client: client}
}

func (i *Interpreter) Interpret(ctx context.Context, result domain.CallResult) (domain.Interpretation, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(interpretationInstruction),
		genai.NewPartFromText("Failure to analyze:\n" + buildInterpretationPayload(result)),
	}

	raw, err := i.client.generateJSON(ctx, "gemini.interpret", parts)
	if err != nil {
		return domain.Interpretation{}, wrapTemporaryIfNeeded("gemini.interpret", err)
	}

	interp, err := parseInterpretation(raw)
	if err != nil {
		return domain.Interpretation{}, fmt.Errorf("interpret failure response: %w", err)
	}
	return interp, nil
}
