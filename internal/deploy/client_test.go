package deploy_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/nftctl/internal/deploy"
)

func validRequest() deploy.Request {
	return deploy.Request{
		Name:           "Cats",
		Symbol:         "CAT",
		BaseURI:        "ipfs://cats/",
		FactoryAddress: "0xFAc7000000000000000000000000000000000001",
		PrivateKey:     "0xabc",
		RPCEndpoint:    "https://sepolia-rollup.arbitrum.io/rpc",
	}
}

// deployServer answers every request with status and body and records hits.
func deployServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDeploySuccess(t *testing.T) {
	var got map[string]string
	var reqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/deploy-nft", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		reqID = r.Header.Get("X-Request-ID")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"collectionAddress": "0x1234567890123456789012345678901234567890",
			"txHash": "0xfeed",
			"success": true,
			"deployOutput": "deployed",
			"initOutput": "initialized",
			"registerOutput": "registered"
		}`)) //nolint:errcheck
	}))
	defer srv.Close()

	tracker := deploy.NewTracker()
	c := deploy.NewClient(srv.URL+"/", deploy.WithTracker(tracker))
	res, err := c.Deploy(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "0x1234567890123456789012345678901234567890", res.CollectionAddress)
	assert.Equal(t, "0xfeed", res.TxHash)
	assert.True(t, res.Success)

	assert.Equal(t, map[string]string{
		"name":           "Cats",
		"symbol":         "CAT",
		"baseUri":        "ipfs://cats/",
		"factoryAddress": "0xFAc7000000000000000000000000000000000001",
		"privateKey":     "0xabc",
		"rpcEndpoint":    "https://sepolia-rollup.arbitrum.io/rpc",
	}, got)
	_, err = uuid.Parse(reqID)
	assert.NoError(t, err)

	assert.Equal(t, deploy.StageSuccess, tracker.Status().Stage)
	assert.Equal(t, []deploy.Stage{
		deploy.StageDeploying,
		deploy.StageActivating,
		deploy.StageInitializing,
		deploy.StageRegistering,
		deploy.StageSuccess,
	}, tracker.History())
}

func TestDeployErrorMessageFromBody(t *testing.T) {
	var hits int32
	srv := deployServer(t, http.StatusInternalServerError, `{"error":"boom"}`, &hits)
	tracker := deploy.NewTracker()

	_, err := deploy.NewClient(srv.URL, deploy.WithTracker(tracker)).Deploy(context.Background(), validRequest())
	require.Error(t, err)
	assert.EqualError(t, err, "boom")

	var apiErr *deploy.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "no retries")

	st := tracker.Status()
	assert.Equal(t, deploy.StageError, st.Stage)
	assert.Equal(t, err, st.Err)
}

func TestDeployErrorUnparsableBody(t *testing.T) {
	var hits int32
	srv := deployServer(t, http.StatusInternalServerError, `<html>oops</html>`, &hits)

	_, err := deploy.NewClient(srv.URL).Deploy(context.Background(), validRequest())
	assert.EqualError(t, err, "Deployment failed with status 500")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestDeployErrorWithoutMessage(t *testing.T) {
	var hits int32
	srv := deployServer(t, http.StatusBadGateway, `{}`, &hits)

	_, err := deploy.NewClient(srv.URL).Deploy(context.Background(), validRequest())
	assert.EqualError(t, err, "Deployment failed with status 502")
}

func TestDeployReportedFailure(t *testing.T) {
	var hits int32
	srv := deployServer(t, http.StatusOK, `{"success":false,"deployOutput":"deployed"}`, &hits)
	tracker := deploy.NewTracker()

	res, err := deploy.NewClient(srv.URL, deploy.WithTracker(tracker)).Deploy(context.Background(), validRequest())
	assert.ErrorIs(t, err, deploy.ErrDeploymentFailed)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, []deploy.Stage{deploy.StageDeploying, deploy.StageActivating, deploy.StageError}, tracker.History())
}

func TestDeployValidation(t *testing.T) {
	var hits int32
	srv := deployServer(t, http.StatusOK, `{}`, &hits)

	req := validRequest()
	req.Name = ""
	req.PrivateKey = ""
	_, err := deploy.NewClient(srv.URL).Deploy(context.Background(), req)
	assert.EqualError(t, err, "deployment request missing name, privateKey")
	assert.Zero(t, atomic.LoadInt32(&hits))

	_, err = deploy.NewClient("").Deploy(context.Background(), validRequest())
	assert.ErrorIs(t, err, deploy.ErrNoBaseURL)
}

func TestDeployTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tracker := deploy.NewTracker()
	_, err := deploy.NewClient(url, deploy.WithTracker(tracker)).Deploy(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
	assert.Equal(t, deploy.StageError, tracker.Status().Stage)
}

func TestTrackerReset(t *testing.T) {
	tracker := deploy.NewTracker()
	var seen []deploy.Stage
	tracker.Subscribe(func(s deploy.Status) { seen = append(seen, s.Stage) })

	tracker.Begin()
	tracker.Fail(errors.New("x"))
	tracker.Reset()

	assert.Equal(t, deploy.StageIdle, tracker.Status().Stage)
	assert.Empty(t, tracker.History())
	assert.Equal(t, []deploy.Stage{deploy.StageDeploying, deploy.StageError, deploy.StageIdle}, seen)
	assert.Equal(t, "registering", deploy.StageRegistering.String())
}

func TestDeployStageOutputs(t *testing.T) {
	var hits int32
	srv := deployServer(t, http.StatusOK, `{
		"collectionAddress": "0x1234567890123456789012345678901234567890",
		"success": true,
		"deployOutput": "deployed at 0x1234",
		"initOutput": "initialized"
	}`, &hits)

	tracker := deploy.NewTracker()
	outputs := map[deploy.Stage][]string{}
	tracker.Subscribe(func(s deploy.Status) { outputs[s.Stage] = append(outputs[s.Stage], s.Output) })

	_, err := deploy.NewClient(srv.URL, deploy.WithTracker(tracker)).Deploy(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "deployed at 0x1234"}, outputs[deploy.StageDeploying])
	assert.Equal(t, []string{""}, outputs[deploy.StageActivating])
	assert.Equal(t, []string{"initialized"}, outputs[deploy.StageInitializing])
	assert.NotContains(t, outputs, deploy.StageRegistering)
	assert.Equal(t, []deploy.Stage{
		deploy.StageDeploying,
		deploy.StageActivating,
		deploy.StageInitializing,
		deploy.StageSuccess,
	}, tracker.History())
}
