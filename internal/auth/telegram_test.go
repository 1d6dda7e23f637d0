package auth

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-TOKEN"

func signedInitData(t *testing.T, userJSON string, authDate time.Time) string {
	t.Helper()
	values := url.Values{}
	values.Set("user", userJSON)
	values.Set("auth_date", fmt.Sprintf("%d", authDate.Unix()))
	values.Set("query_id", "AAE1")
	values.Set("hash", SignInitData(values, testBotToken))
	return values.Encode()
}

func TestValidateInitDataAcceptsSigned(t *testing.T) {
	t.Parallel()

	initData := signedInitData(t, `{"id":777,"first_name":"Alice","username":"alice"}`, time.Now())
	user, err := ValidateInitData(initData, testBotToken)
	require.NoError(t, err)
	assert.Equal(t, int64(777), user.ID)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, "alice", user.Username)
}

func TestValidateInitDataRejectsTampering(t *testing.T) {
	t.Parallel()

	initData := signedInitData(t, `{"id":777,"first_name":"Alice"}`, time.Now())

	// Signature d'un autre bot.
	_, err := ValidateInitData(initData, "999:AUTRE-TOKEN")
	assert.ErrorIs(t, err, ErrInvalidInitData)

	// Payload modifié après signature.
	values, perr := url.ParseQuery(initData)
	require.NoError(t, perr)
	values.Set("user", `{"id":666,"first_name":"Mallory"}`)
	_, err = ValidateInitData(values.Encode(), testBotToken)
	assert.ErrorIs(t, err, ErrInvalidInitData)
}

func TestValidateInitDataRejectsMissingParts(t *testing.T) {
	t.Parallel()

	_, err := ValidateInitData("user=%7B%22id%22%3A1%7D", testBotToken)
	assert.ErrorIs(t, err, ErrInvalidInitData, "hash absent")

	// Signé mais sans champ user.
	values := url.Values{}
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	values.Set("hash", SignInitData(values, testBotToken))
	_, err = ValidateInitData(values.Encode(), testBotToken)
	assert.ErrorIs(t, err, ErrInvalidInitData)
}

func TestValidateInitDataRejectsStale(t *testing.T) {
	t.Parallel()

	old := time.Now().Add(-initDataMaxAge - time.Hour)
	initData := signedInitData(t, `{"id":777,"first_name":"Alice"}`, old)
	_, err := ValidateInitData(initData, testBotToken)
	assert.ErrorIs(t, err, ErrExpiredInitData)
}
