// Command-line chat for a running knoflo server.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"knoflo/knoflo/client"
	"knoflo/knoflo/services/llm"
	"knoflo/knoflo/utils/logging"

	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()

	baseURL := os.Getenv("KNOFLO_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	username := os.Getenv("KNOFLO_USER")
	if username == "" {
		username = "student"
	}

	ctx := context.Background()
	token, err := client.Login(ctx, baseURL, username)
	if err != nil {
		logging.ErrorLogger.Error("login failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "login failed:", err)
		os.Exit(1)
	}

	c := client.New(baseURL, token)
	conv := c.NewConversation(llm.ModeGeneral, os.Getenv("KNOFLO_NOTE"))

	fmt.Println("knoflo study chat")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  /mode quiz|explain|flashcard|general   switch study mode (new session)")
	fmt.Println("  /note <id>                             bind a note (new session)")
	fmt.Println("  exit                                   quit")
	fmt.Println()
	printLast(conv)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}
		if mode, ok := strings.CutPrefix(line, "/mode "); ok {
			m := llm.StudyMode(strings.TrimSpace(mode))
			if !m.Valid() {
				fmt.Println("unknown mode:", mode)
				continue
			}
			conv.SetMode(m)
			printLast(conv)
			continue
		}
		if noteID, ok := strings.CutPrefix(line, "/note "); ok {
			conv.SetNote(strings.TrimSpace(noteID))
			printLast(conv)
			continue
		}

		fmt.Print("tutor> ")
		err := conv.Send(ctx, line, func(delta string) {
			fmt.Print(delta)
		})
		if err != nil {
			// Transcript already ends with the fallback reply.
			fmt.Print(client.FallbackReply)
			logging.ErrorLogger.Error("turn failed", zap.Error(err))
		}
		fmt.Println()
	}
}

func printLast(conv *client.Conversation) {
	msgs := conv.Messages()
	if len(msgs) == 0 {
		return
	}
	fmt.Println("tutor>", msgs[len(msgs)-1].Content)
}
