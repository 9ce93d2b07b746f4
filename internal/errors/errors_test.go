package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"granttrack/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := ValidationFailure(core.ErrNoDates, "no dates")
	wrapped := Wrap(base, "balancer run rejected")

	assert.Equal(t, CodeValidationFailure, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, core.ErrNoDates))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestClassify(t *testing.T) {
	transient := fmt.Errorf("connection reset by peer")

	assert.Equal(t, CodeValidationFailure, GetCode(Classify(fmt.Errorf("bad: %w", core.ErrPoolTooSmall))))
	assert.Equal(t, CodeNotFound, GetCode(Classify(core.NewNotFoundError("dataset", "x"))))
	assert.Same(t, transient, Classify(transient), "transient errors pass through unmodified")
	assert.Nil(t, Classify(nil))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeBusy, fmt.Errorf("locked"))
	assert.Equal(t, CodeBusy, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}
