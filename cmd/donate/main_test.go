package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTargetsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/programs", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":2,"title":"School Meals","goal_amount":0,"raised_amount":300}]}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--api", srv.URL, "targets", "program")
	require.NoError(t, err)
	assert.Contains(t, out, "School Meals")
	assert.Contains(t, out, "300.00")
}

func TestTargetsCommandRejectsFunds(t *testing.T) {
	_, err := runCLI(t, "--api", "http://127.0.0.1:1", "targets", "zakat")
	assert.Error(t, err)
}

func TestGiveCommand(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"payment_url":"https://checkout.example.com/pay/xyz","donation":{"reference":"DON-20240601-AB12CD"}}`))
	}))
	defer srv.Close()

	t.Run("valid donation prints the payment link", func(t *testing.T) {
		out, err := runCLI(t, "--api", srv.URL, "give", "--category", "zakat", "--amount", "50",
			"--name", "Amina", "--email", "amina@example.org")
		require.NoError(t, err)
		assert.Contains(t, out, "https://checkout.example.com/pay/xyz")
		assert.Equal(t, int32(1), posts.Load())
	})

	t.Run("small amount is rejected locally", func(t *testing.T) {
		_, err := runCLI(t, "--api", srv.URL, "give", "--category", "general", "--amount", "5",
			"--name", "Amina", "--email", "amina@example.org")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "amount must be at least 10")
		assert.Equal(t, int32(1), posts.Load())
	})
}
