package utils

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTSMSClient_DryRun(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := NewTSMSClient("user", "pass", "3000100", "", true)
	c.BaseURL = srv.URL

	err := c.SendCode("09123456789", "12345")
	assert.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&hits), "dry run must not hit the gateway")
}

func TestTSMSClient_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "user", q.Get("username"))
		assert.Equal(t, "09123456789", q.Get("to"))
		assert.Equal(t, "3000100", q.Get("from"))
		assert.Contains(t, q.Get("message"), "12345")
		w.Write([]byte("1"))
	}))
	defer srv.Close()

	c := NewTSMSClient("user", "pass", "3000100", "", false)
	c.BaseURL = srv.URL

	assert.NoError(t, c.SendCode("09123456789", "12345"))
}

func TestTSMSClient_FallbackSender(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from := r.URL.Query().Get("from")
		calls = append(calls, from)
		if from == "3000100" {
			w.Write([]byte("0")) // primary line rejected
			return
		}
		w.Write([]byte("1"))
	}))
	defer srv.Close()

	c := NewTSMSClient("user", "pass", "3000100", "3000200", false)
	c.BaseURL = srv.URL

	assert.NoError(t, c.SendCode("09123456789", "12345"))
	assert.Equal(t, []string{"3000100", "3000200"}, calls)
}

func TestTSMSClient_AllSendersFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Err: invalid credentials"))
	}))
	defer srv.Close()

	c := NewTSMSClient("user", "pass", "3000100", "3000200", false)
	c.BaseURL = srv.URL

	err := c.SendCode("09123456789", "12345")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "all senders failed")
}

func TestTSMSClient_MissingCredentials(t *testing.T) {
	c := NewTSMSClient("", "", "3000100", "", false)
	err := c.SendCode("09123456789", "12345")
	assert.Error(t, err)
}
