package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

func TestDelivery_IsSupported(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected bool
	}{
		{
			name:     "patch set created",
			data:     `{"type":"patchset-created","project":"app","refName":"refs/heads/main"}`,
			expected: true,
		},
		{
			name:     "ref updated",
			data:     `{"type":"ref-updated","refUpdate":{"project":"app","refName":"main","newRev":"abc"}}`,
			expected: true,
		},
		{
			name:     "project created is not ref scoped",
			data:     `{"type":"project-created","projectName":"app","headName":"refs/heads/main"}`,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := model.DecodeEvent([]byte(tt.data))
			gt.NoError(t, err)
			d := &model.Delivery{Event: ev}
			gt.Equal(t, d.IsSupported(), tt.expected)
		})
	}

	t.Run("no event", func(t *testing.T) {
		gt.False(t, (&model.Delivery{}).IsSupported())
	})
}

func TestDecodeEvent(t *testing.T) {
	t.Run("change fields", func(t *testing.T) {
		ev, err := model.DecodeEvent([]byte(`{
			"type": "change-merged",
			"change": {"project": "team/app", "branch": "main", "number": 12},
			"newRev": "0123"
		}`))
		gt.NoError(t, err)

		merged, ok := ev.(*model.ChangeMergedEvent)
		gt.True(t, ok)
		gt.Equal(t, merged.Kind(), model.EventKindChangeMerged)
		gt.Equal(t, merged.ProjectName(), "team/app")
		gt.Equal(t, merged.RefName(), "refs/heads/main")
		gt.Equal(t, merged.NewRev, "0123")
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := model.DecodeEvent([]byte(`{"type":"reviewer-added"}`))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrUnsupportedEvent))
	})

	t.Run("broken json", func(t *testing.T) {
		_, err := model.DecodeEvent([]byte(`{"type":`))
		gt.Error(t, err)
		gt.False(t, errors.Is(err, model.ErrUnsupportedEvent))
	})

	t.Run("simple ref name", func(t *testing.T) {
		gt.Equal(t, model.SimpleRefName("refs/heads/main"), "main")
		gt.Equal(t, model.SimpleRefName("refs/tags/v1"), "v1")
		gt.Equal(t, model.SimpleRefName("refs/meta/config"), "refs/meta/config")
	})
}
