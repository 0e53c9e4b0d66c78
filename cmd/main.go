package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-forwarder/handler"
	"chat-forwarder/internal/config"
	"chat-forwarder/internal/integrations/inference"
	"chat-forwarder/internal/integrations/paramstore"
	"chat-forwarder/internal/logger"
	"chat-forwarder/internal/usecase"
)

func main() {
	ctx := context.Background()
	log := logger.L

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	endpoint := cfg.Endpoint
	if cfg.EndpointParameter != "" {
		endpoint, err = endpointFromParamStore(ctx, cfg.EndpointParameter)
		if err != nil {
			log.Error("failed to resolve endpoint from parameter store", "parameter", cfg.EndpointParameter, "err", err)
			os.Exit(1)
		}
	}

	// ---- Clients ----
	client, err := inference.NewClient(endpoint, inference.WithTimeout(cfg.HTTPTimeout))
	if err != nil {
		log.Error("failed to create inference client", "err", err)
		os.Exit(1)
	}
	log.Info("inference endpoint configured", "endpoint", client.Endpoint())

	// ---- Handler ----
	svc, err := usecase.NewForwardService(client, log)
	if err != nil {
		log.Error("failed to create forward service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(svc, log)
	if err != nil {
		log.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func endpointFromParamStore(ctx context.Context, name string) (string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return "", err
	}
	return paramstore.ResolveEndpoint(ctx, ps, name)
}
