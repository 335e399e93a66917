package ai

import (
	"context"
)

// NewDummyModel is useful for testing purposes. It allows you to mock the
// model's response.
func NewDummyModel(responseFunc func(messages []Message) AIMessage) *Model {
	return &Model{
		ModelName: "dummy",
		callFunc: func(ctx context.Context, model *Model, messages []Message) (AIMessage, error) {
			if err := ctx.Err(); err != nil {
				return AIMessage{}, err
			}
			return responseFunc(messages), nil
		},
	}
}
