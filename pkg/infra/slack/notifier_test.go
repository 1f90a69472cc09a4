package slack_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/itsgate/pkg/infra/slack"
)

func TestNotifier_PostMessage(t *testing.T) {
	var gotChannel, gotText, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChannel = r.PostForm.Get("channel")
		gotText = r.PostForm.Get("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1700000000.000100"}`))
	}))
	defer server.Close()

	n := slack.New("xoxb-test", slack.WithAPIURL(server.URL+"/"))
	gt.NoError(t, n.PostMessage(context.Background(), "#dev", "Issue 42 updated"))
	gt.Equal(t, gotPath, "/chat.postMessage")
	gt.Equal(t, gotChannel, "#dev")
	gt.Equal(t, gotText, "Issue 42 updated")
}

func TestNotifier_PostMessage_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer server.Close()

	n := slack.New("xoxb-test", slack.WithAPIURL(server.URL+"/"))
	gt.Error(t, n.PostMessage(context.Background(), "#nowhere", "hi"))
}
