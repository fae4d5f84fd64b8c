package client

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// NewChannelCommand constructs the `channel` command group and subcommands.
func NewChannelCommand() *cobra.Command {
	channelCmd := &cobra.Command{Use: "channel", Short: "Channel operations"}

	channelCmd.AddCommand(
		newChannelListenCommand(),
		newChannelSendCommand(),
		newChannelHistoryCommand(),
	)

	return channelCmd
}

type action struct {
	Action    string `json:"action"`
	ChannelID string `json:"channelId,omitempty"`
	Name      string `json:"name,omitempty"`
	Content   string `json:"content,omitempty"`
}

// newChannelListenCommand constructs the `channel listen` subcommand.
func newChannelListenCommand() *cobra.Command {
	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Join a channel and stream its events; stdin lines are sent as messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, _ := cmd.Flags().GetString("url")
			channel, _ := cmd.Flags().GetString("channel")
			name, _ := cmd.Flags().GetString("name")

			c, err := dialContext(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.WriteJSON(action{Action: "subscribe", ChannelID: channel}); err != nil {
				return err
			}

			// Reader: events to stdout until the socket or context goes away.
			done := make(chan error, 1)
			go func() {
				for {
					_, raw, err := c.ReadMessage()
					if err != nil {
						done <- err
						return
					}
					fmt.Println(formatEvent(raw))
				}
			}()

			// Writer: stdin lines become sendMessage actions.
			go func() {
				sc := bufio.NewScanner(os.Stdin)
				for sc.Scan() {
					line := sc.Text()
					if line == "" {
						continue
					}
					_ = c.WriteJSON(action{Action: "sendMessage", ChannelID: channel, Name: name, Content: line})
				}
			}()

			select {
			case <-cmd.Context().Done():
				return nil
			case err := <-done:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return nil
				}
				return err
			}
		},
	}
	listenCmd.Flags().String("url", "", "Websocket URL (default from RELAY_WS)")
	listenCmd.Flags().String("channel", "General", "Channel to join")
	listenCmd.Flags().String("name", "anonymous", "Display name for sent messages")
	return listenCmd
}

// newChannelSendCommand constructs the `channel send` subcommand.
func newChannelSendCommand() *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Post a single message to a channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, _ := cmd.Flags().GetString("url")
			channel, _ := cmd.Flags().GetString("channel")
			name, _ := cmd.Flags().GetString("name")
			content, _ := cmd.Flags().GetString("content")
			if content == "" {
				return fmt.Errorf("--content is required")
			}

			c, err := dialContext(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.WriteJSON(action{Action: "sendMessage", ChannelID: channel, Name: name, Content: content}); err != nil {
				return err
			}
			// Wait for our own fan-out copy so the write is known delivered.
			_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
			for {
				_, raw, err := c.ReadMessage()
				if err != nil {
					return nil
				}
				line := formatEvent(raw)
				if line != "" {
					fmt.Println(line)
					return nil
				}
			}
		},
	}
	sendCmd.Flags().String("url", "", "Websocket URL (default from RELAY_WS)")
	sendCmd.Flags().String("channel", "General", "Channel to post to")
	sendCmd.Flags().String("name", "anonymous", "Display name")
	sendCmd.Flags().String("content", "", "Message content")
	return sendCmd
}

// newChannelHistoryCommand constructs the `channel history` subcommand.
func newChannelHistoryCommand() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the first page of a channel's history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, _ := cmd.Flags().GetString("url")
			channel, _ := cmd.Flags().GetString("channel")
			wait, _ := cmd.Flags().GetDuration("wait")

			c, err := dialContext(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.WriteJSON(action{Action: "loadHistory", ChannelID: channel}); err != nil {
				return err
			}
			// History has no terminator frame; read until the quiet period.
			for {
				_ = c.SetReadDeadline(time.Now().Add(wait))
				_, raw, err := c.ReadMessage()
				if err != nil {
					return nil
				}
				fmt.Println(formatEvent(raw))
			}
		},
	}
	historyCmd.Flags().String("url", "", "Websocket URL (default from RELAY_WS)")
	historyCmd.Flags().String("channel", "General", "Channel to read")
	historyCmd.Flags().Duration("wait", 2*time.Second, "Quiet period that ends the replay")
	return historyCmd
}
