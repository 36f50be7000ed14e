package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/applyforge/applyforge/internal/domain"
)

func TestIsMenuTimeout(t *testing.T) {
	err := domain.MenuTimeoutField("field-2", "Country")
	if !IsMenuTimeout(err) {
		t.Error("menu-timeout field error should be recognized")
	}
	if !IsMenuTimeout(fmt.Errorf("selecting option: %w", err)) {
		t.Error("wrapped menu-timeout should be recognized")
	}
	if IsMenuTimeout(errors.New("menu never appeared")) {
		t.Error("plain text match must not count as a menu timeout")
	}
	if IsMenuTimeout(domain.OptionValidationField("f", "F", "x")) {
		t.Error("other field errors are not menu timeouts")
	}
	if IsMenuTimeout(nil) {
		t.Error("nil is not a menu timeout")
	}
}
