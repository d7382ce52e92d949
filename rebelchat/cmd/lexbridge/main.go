// Lambda function behind the chat proxy: forwards each message to the Lex bot
package main

import (
	"context"

	"rebelchat/rebelchat/config"
	"rebelchat/rebelchat/services/lex"
	"rebelchat/rebelchat/utils/logging"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger("/tmp/logs")
	defer logging.Sync()

	awsCfg, err := cfg.AWSConfig(context.Background())
	if err != nil {
		logging.ErrorLogger.Fatal("aws config error", zap.Error(err))
	}
	bot := lex.NewServiceFromConfig(awsCfg, lex.Bot{
		BotID:    cfg.LexBotID,
		AliasID:  cfg.LexBotAliasID,
		LocaleID: cfg.LexLocaleID,
	})
	h := &Handler{Bot: bot, APIKey: cfg.LambdaAPIKey}
	awslambda.Start(h.Handle)
}
