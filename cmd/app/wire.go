//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/echo-chat/internal/bootstrap"
	"github.com/yanqian/echo-chat/internal/domain/conversation"
	"github.com/yanqian/echo-chat/internal/domain/summarizer"
	"github.com/yanqian/echo-chat/internal/infra/config"
	"github.com/yanqian/echo-chat/internal/infra/events"
	"github.com/yanqian/echo-chat/internal/infra/moderation"
	httpiface "github.com/yanqian/echo-chat/internal/interface/http"
	"github.com/yanqian/echo-chat/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideSummaryConfig,
		provideTransport,
		provideModerationFilter,
		provideHub,
		provideEventRelay,
		provideRenderer,
		provideWorkers,
		summarizer.NewService,
		conversation.NewController,
		wire.Bind(new(conversation.Summarizer), new(summarizer.Service)),
		wire.Bind(new(conversation.Moderator), new(*moderation.Filter)),
		wire.Bind(new(httpiface.EventSource), new(*events.Hub)),
		httpiface.NewChatHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
