package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentResult_DecodesNumericAndStringAmounts(t *testing.T) {
	body := `{"success":true,"data":{"transaction_id":"T1","order_id":"O1","amount":1000,"fee":"10.50","net_amount":989.5,"status":"pending"}}`

	var result PaymentResult
	require.NoError(t, json.Unmarshal([]byte(body), &result))

	require.NotNil(t, result.Data)
	assert.True(t, result.Success)
	assert.Nil(t, result.Message)
	assert.Equal(t, "O1", result.Data.OrderID)
	assert.Equal(t, "1000", result.Data.Amount.String())
	assert.Equal(t, "10.5", result.Data.Fee.String())
	assert.Equal(t, "989.5", result.Data.NetAmount.String())
}

func TestStatusResult_PaymentStatus(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "completed", body: `{"data":{"status":"completed"}}`, expected: "completed"},
		{name: "no status", body: `{"data":{}}`, expected: ""},
		{name: "no data", body: `{}`, expected: ""},
		{name: "null data", body: `{"data":null}`, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result StatusResult
			require.NoError(t, json.Unmarshal([]byte(tt.body), &result))
			assert.Equal(t, tt.expected, result.PaymentStatus())
		})
	}

	var missing *StatusResult
	assert.Equal(t, "", missing.PaymentStatus())
}
