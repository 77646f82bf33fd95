package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-join-service/config"
)

func TestSubjectForPhase(t *testing.T) {
	assert.Equal(t, SubjectSucceeded, SubjectForPhase("SUCCEEDED"))
	assert.Equal(t, SubjectExpired, SubjectForPhase("EXPIRED"))
	assert.Equal(t, SubjectFailed, SubjectForPhase("FAILED"))
	assert.Empty(t, SubjectForPhase("PAYING"))
}

func TestNewPublisherWithoutURLIsNop(t *testing.T) {
	p, err := NewPublisher(context.Background(), config.NATSConfig{}, nil)

	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.PublishRegistration(context.Background(), SubjectSucceeded, RegistrationEvent{}))
	assert.NoError(t, p.Close())
}
