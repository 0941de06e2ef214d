package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *PipelineError
		want string
	}{
		{
			name: "document context with row",
			err:  NewRecordMalformed("fy25_sales.xlsx", 14, "ticket count not numeric"),
			want: "RECORD_MALFORMED: ticket count not numeric (document=fy25_sales.xlsx row=14)",
		},
		{
			name: "document context without row",
			err:  NewLayoutUnresolved("fy25_sales.xlsx", "no date column"),
			want: "LAYOUT_UNRESOLVED: no date column (document=fy25_sales.xlsx)",
		},
		{
			name: "wrapped cause",
			err:  NewConfiguration("missing credentials", errors.New("TIX_WAREHOUSE_CREDENTIALS unset")),
			want: "CONFIGURATION: missing credentials: TIX_WAREHOUSE_CREDENTIALS unset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsCode(t *testing.T) {
	err := NewDocumentUnreadable("broken.pdf", errors.New("bad xref"))
	wrapped := fmt.Errorf("processing batch: %w", err)

	assert.True(t, IsCode(wrapped, CodeDocumentUnreadable))
	assert.False(t, IsCode(wrapped, CodeRecordMalformed))
	assert.False(t, IsCode(errors.New("plain"), CodeDocumentUnreadable))
}

func TestIsTransient(t *testing.T) {
	transient := NewWarehouseWriteFailure("insert timed out", errors.New("context deadline exceeded"), true)
	structural := NewWarehouseWriteFailure("schema mismatch", nil, false)

	assert.True(t, IsTransient(fmt.Errorf("batch 3: %w", transient)))
	assert.False(t, IsTransient(structural))
	assert.False(t, IsTransient(errors.New("plain")))
}

func TestErrorsIsMatchesOnCode(t *testing.T) {
	a := NewDateUnresolvable("a.xlsx", 3, "Nov. 1-3", nil)
	b := NewDateUnresolvable("b.xlsx", 9, "???", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, NewRecordMalformed("a.xlsx", 3, "x")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewDocumentUnreadable("f.xlsx", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}
