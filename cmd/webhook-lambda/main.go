package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/nutribot/cmd/mainconfig"
	"github.com/wolfman30/nutribot/internal/app/bootstrap"
	"github.com/wolfman30/nutribot/internal/channels/telegram"
	appconfig "github.com/wolfman30/nutribot/internal/config"
	"github.com/wolfman30/nutribot/pkg/logging"
)

const rootMessage = "Telegram nutrition bot is running."

// updateProcessor is satisfied by *telegram.WebhookHandler.
type updateProcessor interface {
	Process(ctx context.Context, secretHeader string, body []byte) int
}

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.Build(context.Background(), cfg, bootstrap.Options{
		Logger:  logger,
		LoadAWS: mainconfig.Loader(cfg),
	})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, app.Webhook, evt)
	})
}

// handle runs the update to completion before returning; Lambda freezes the
// process as soon as the response is written.
func handle(ctx context.Context, hook updateProcessor, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	switch path {
	case "/health", "/_health":
		return jsonResponse(http.StatusOK, map[string]string{"status": "ok"}), nil
	case "", "/":
		if method != http.MethodGet {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
		}
		return jsonResponse(http.StatusOK, map[string]string{"message": rootMessage}), nil
	case "/webhook":
	default:
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}

	if method != http.MethodPost {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
	}

	body, err := decodeBody(evt)
	if err != nil {
		// Same policy as a malformed update over HTTP: acknowledge and move on.
		return jsonResponse(http.StatusOK, map[string]bool{"ok": true}), nil
	}

	status := hook.Process(ctx, headerValue(evt.Headers, telegram.SecretHeader), body)
	return jsonResponse(status, map[string]bool{"ok": status == http.StatusOK}), nil
}

func jsonResponse(status int, v any) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"content-type": "application/json"},
	}
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
