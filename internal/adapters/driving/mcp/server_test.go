package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil retrieval service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Tenant: &mockTenantService{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRetrievalService)
	})

	t.Run("nil tenant service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingTenantService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := newTestServer(&mockRetrievalService{}, &mockTenantService{})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"empty", &Ports{}, ErrMissingRetrievalService},
		{"retrieval only", &Ports{Retrieval: &mockRetrievalService{}}, ErrMissingTenantService},
		{"complete", &Ports{Retrieval: &mockRetrievalService{}, Tenant: &mockTenantService{}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
