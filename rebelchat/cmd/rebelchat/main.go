// Terminal client for the Rebel Energy support chat
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rebelchat/rebelchat/config"
	"rebelchat/rebelchat/services/chatclient"
	"rebelchat/rebelchat/utils/color"
	"rebelchat/rebelchat/utils/logging"

	"go.uber.org/zap"
)

const defaultURL = "http://localhost:8000"

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(envOr("REBELCHAT_LOG_DIR", filepath.Join(os.TempDir(), "rebelchat-logs")))
	defer logging.Sync()

	if os.Getenv("NO_COLOR") != "" {
		color.Disable()
	}

	args := os.Args[1:]
	if len(args) == 0 || args[0] != "connect" {
		usage()
		os.Exit(1)
	}

	baseURL := envOr("REBELCHAT_URL", defaultURL)
	useLex := false
	for _, a := range args[1:] {
		switch {
		case a == "--lex":
			useLex = true
		case strings.HasPrefix(a, "http://"), strings.HasPrefix(a, "https://"):
			baseURL = a
		default:
			usage()
			os.Exit(1)
		}
	}

	token := os.Getenv("REBELCHAT_TOKEN")
	httpTr := &chatclient.HTTPTransport{BaseURL: baseURL, Token: token}
	lexTr := &chatclient.LexTransport{BaseURL: baseURL, Token: token}
	var tr chatclient.Transport = httpTr
	if useLex {
		tr = lexTr
	}
	session := chatclient.NewSession(tr, cfg.WelcomeMessage)

	logging.AppLogger.Info("rebelchat client connected",
		zap.String("url", baseURL),
		zap.Bool("lex", useLex),
		zap.String("sessionID", session.SessionID()),
	)

	fmt.Println()
	fmt.Println(color.ColorInfo("Connected to " + baseURL))
	fmt.Println(color.ColorMuted("Session: " + session.SessionID()))
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  /signin <email> <password>   sign in so the conversation is saved")
	fmt.Println("  /voice <file.wav>            send a recorded question (needs --lex)")
	fmt.Println("  /clear                       start a new conversation")
	fmt.Println("  /history                     show this conversation")
	fmt.Println("  exit                         quit")
	fmt.Println()
	fmt.Println(color.ColorBot(session.Messages()[0].Text))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.ColorPrompt("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			fmt.Println("Goodbye!")
			break
		}
		if line == "" {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		switch {
		case strings.HasPrefix(line, "/signin"):
			fields := strings.Fields(line)
			if len(fields) != 3 {
				fmt.Println(color.ColorWarning("usage: /signin <email> <password>"))
				break
			}
			out, err := chatclient.SignIn(ctx, nil, baseURL, fields[1], fields[2])
			if err != nil {
				fmt.Println(color.ColorError(err.Error()))
				break
			}
			httpTr.Token = out.Token
			lexTr.Token = out.Token
			fmt.Println(color.ColorInfo("Signed in as " + out.User.Email))

		case strings.HasPrefix(line, "/voice"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/voice"))
			if path == "" {
				fmt.Println(color.ColorWarning("usage: /voice <file.wav>"))
				break
			}
			wav, err := os.ReadFile(path)
			if err != nil {
				fmt.Println(color.ColorError(err.Error()))
				break
			}
			reply, err := session.SendVoice(ctx, wav)
			if err != nil {
				printFailure(session, err)
				break
			}
			if reply.Transcript != "" {
				fmt.Println(color.ColorMuted("you said: " + reply.Transcript))
			}
			fmt.Println(color.ColorBot(reply.Response))

		case line == "/clear":
			session.Clear()
			fmt.Println(color.ColorMuted("New session: " + session.SessionID()))
			fmt.Println(color.ColorBot(session.Messages()[0].Text))

		case line == "/history":
			for _, m := range session.Messages() {
				who := color.ColorPrompt("you")
				if m.IsBot {
					who = color.ColorBot("bot")
				}
				fmt.Printf("%s %s: %s\n", color.ColorMuted(m.Timestamp.Format("15:04")), who, m.Text)
			}

		default:
			answer, err := session.Send(ctx, line)
			if err != nil {
				printFailure(session, err)
				break
			}
			fmt.Println(color.ColorBot(answer))
		}
		cancel()
		fmt.Println()
	}
	os.Exit(0)
}

// printFailure shows the bot message the session recorded for a failed turn.
func printFailure(s *chatclient.Session, err error) {
	logging.ErrorLogger.Error("chat turn failed", zap.Error(err))
	if errors.Is(err, chatclient.ErrVoiceUnsupported) {
		fmt.Println(color.ColorWarning("Voice needs the Lex routes. Reconnect with --lex."))
		return
	}
	msgs := s.Messages()
	fmt.Println(color.ColorError(msgs[len(msgs)-1].Text))
}

func usage() {
	fmt.Println("rebelchat usage:")
	fmt.Println("  rebelchat connect [url] [--lex]   # chat with the support assistant")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
