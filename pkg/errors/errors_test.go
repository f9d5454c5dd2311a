package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneStillMatchesTemplate(t *testing.T) {
	err := Clone(ErrLotDepleted, "lot L-1 has no remaining doses")
	assert.True(t, errors.Is(err, ErrLotDepleted))
	assert.False(t, errors.Is(err, ErrLotExpired))
}

func TestFromErrorRedactsInfrastructureDetail(t *testing.T) {
	appErr := FromError(errors.New(`pq: relation "vaccine_lots" does not exist`))
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	payload, err := json.Marshal(appErr)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "vaccine_lots")
	assert.Contains(t, appErr.Error(), "vaccine_lots")
}
