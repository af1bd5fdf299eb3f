package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())
	logger.Enable(false)

	p := auth.Principal{ID: "t1", SchoolID: "s1", Role: auth.RoleTeacher, Name: "Jane"}
	logger.Error("booking failed", errors.New("boom"), p, map[string]interface{}{"class": "c1"})
	logger.Info("cleanup done")

	out := buf.String()
	assert.Contains(t, out, "[ERROR] booking failed (TEACHER t1)")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "class:c1")
	assert.Contains(t, out, "[INFO] cleanup done\n")
	assert.NotContains(t, out, "SchoolID")
}

func TestSplit(t *testing.T) {
	p1 := auth.Principal{ID: "a"}
	p2 := auth.Principal{ID: "b"}
	principal, rest := split([]interface{}{"x", p1, &p2, 3})
	if assert.NotNil(t, principal) {
		assert.Equal(t, "a", principal.ID)
	}
	assert.Equal(t, []interface{}{"x", 3}, rest)
}
