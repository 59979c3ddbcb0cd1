package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"

	"reelchat/internal/client"
	"reelchat/internal/config"
	"reelchat/internal/models"
)

type command struct {
	name  string
	usage string
	help  string
	run   func(s *shell, args []string) error
}

var commands = []command{
	{"register", "register <email> <password> <display name...>", "Create an account", (*shell).register},
	{"login", "login <email> <password>", "Log in and keep the session", (*shell).login},
	{"logout", "logout", "Revoke the session token", (*shell).logout},
	{"search", "search <query>", "Find people to add", (*shell).search},
	{"add", "add <userId>", "Send a friend request", (*shell).add},
	{"requests", "requests", "Show incoming and outgoing requests", (*shell).requests},
	{"accept", "accept <requestId>", "Accept an incoming request", (*shell).accept},
	{"reject", "reject <requestId>", "Reject an incoming request", (*shell).reject},
	{"cancel", "cancel <requestId>", "Withdraw a request you sent", (*shell).cancel},
	{"status", "status <userId>", "Show your relationship with someone", (*shell).status},
	{"friends", "friends", "List your friends", (*shell).friends},
	{"unfriend", "unfriend <userId>", "Remove a friend", (*shell).unfriend},
	{"rooms", "rooms", "List your direct-message rooms", (*shell).rooms},
	{"dm", "dm <userId>", "Open the room with someone", (*shell).dm},
	{"send", "send <roomId> <text...>", "Post a message", (*shell).send},
	{"share", "share <friendId> <reelId> <videoUrl> [description...]", "Share a reel with a friend", (*shell).share},
	{"messages", "messages <roomId> [limit] [offset]", "Show room messages", (*shell).messages},
	{"watch", "watch [off]", "Stream live events from the chat server", (*shell).watch},
}

type shell struct {
	api         *client.Client
	cfg         config.Config
	cancelWatch context.CancelFunc
}

func newShell(api *client.Client, cfg config.Config) *shell {
	return &shell{api: api, cfg: cfg}
}

func (s *shell) livePrefix() (string, bool) {
	if me := s.api.Me(); me != nil {
		return me.DisplayName + "> ", true
	}
	return "", false
}

func (s *shell) complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	suggestions := make([]prompt.Suggest, 0, len(commands)+3)
	for _, c := range commands {
		suggestions = append(suggestions, prompt.Suggest{Text: c.name, Description: c.help})
	}
	suggestions = append(suggestions,
		prompt.Suggest{Text: "help", Description: "Show this help message"},
		prompt.Suggest{Text: "exit", Description: "Leave the shell"},
	)
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}

func (s *shell) execute(input string) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "help":
		s.help()
		return
	case "exit", "quit":
		s.stopWatch()
		os.Exit(0)
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(s, args); err != nil {
			if err == errUsage {
				fmt.Println("Usage:", c.usage)
				return
			}
			fmt.Println("Error:", err)
		}
		return
	}
	fmt.Println("Unknown command. Type 'help' for a list of commands.")
}

func (s *shell) help() {
	fmt.Println("\n=== reelchat CLI Help ===")
	for _, c := range commands {
		fmt.Printf("%-10s : %s\n", c.name, c.help)
		fmt.Printf("%-10s   %s\n", "", c.usage)
	}
	fmt.Printf("%-10s : %s\n", "exit", "Leave the shell")
}

func (s *shell) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.Client.Timeout+time.Second)
}

var errUsage = errors.New("usage")

func (s *shell) register(args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	user, err := s.api.Register(ctx, args[0], strings.Join(args[2:], " "), args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s (%s). Now run: login %s <password>\n", user.DisplayName, user.ID, user.Email)
	return nil
}

func (s *shell) login(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	user, err := s.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", user.DisplayName, user.ID)
	return nil
}

func (s *shell) logout([]string) error {
	s.stopWatch()
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.api.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (s *shell) search(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	users, err := s.api.SearchUsers(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No one found")
	}
	for _, u := range users {
		fmt.Printf("  %-36s %s <%s>\n", u.ID, u.DisplayName, u.Email)
	}
	return nil
}

func (s *shell) add(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	result, err := s.api.SendFriendRequest(ctx, args[0])
	if err != nil {
		return err
	}
	if result.Room != nil {
		fmt.Printf("%s had already asked you; you are now friends. Room: %s\n", result.Request.FromName, result.Room.ID)
		return nil
	}
	fmt.Printf("Friend request %s sent to %s\n", result.Request.ID, result.Request.ToName)
	return nil
}

func (s *shell) requests([]string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	incoming, err := s.api.IncomingRequests(ctx)
	if err != nil {
		return err
	}
	outgoing, err := s.api.OutgoingRequests(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Incoming (%d):\n", len(incoming))
	for _, r := range incoming {
		fmt.Printf("  %s  from %s, %s\n", r.ID, r.FromName, r.CreatedAt.Format(time.DateTime))
	}
	fmt.Printf("Outgoing (%d):\n", len(outgoing))
	for _, r := range outgoing {
		fmt.Printf("  %s  to %s, %s\n", r.ID, r.ToName, r.CreatedAt.Format(time.DateTime))
	}
	return nil
}

func (s *shell) accept(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	result, err := s.api.AcceptRequest(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("You and %s are now friends. Room: %s\n", result.Request.FromName, result.Room.ID)
	return nil
}

func (s *shell) reject(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.api.RejectRequest(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Request rejected")
	return nil
}

func (s *shell) cancel(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.api.CancelRequest(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Request cancelled")
	return nil
}

func (s *shell) status(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	state, err := s.api.PairStatus(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(state)
	return nil
}

func (s *shell) friends([]string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	friends, err := s.api.Friends(ctx)
	if err != nil {
		return err
	}
	if len(friends) == 0 {
		fmt.Println("No friends yet. Try 'search'.")
	}
	for _, f := range friends {
		fmt.Printf("  %-36s %s (since %s)\n", f.FriendID, f.DisplayName, f.CreatedAt.Format(time.DateOnly))
	}
	return nil
}

func (s *shell) unfriend(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.api.Unfriend(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Removed")
	return nil
}

func (s *shell) rooms([]string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	rooms, err := s.api.Rooms(ctx)
	if err != nil {
		return err
	}
	for _, r := range rooms {
		fmt.Printf("  %s  with %s\n", r.ID, s.peerName(r))
	}
	return nil
}

func (s *shell) peerName(room models.Room) string {
	if me := s.api.Me(); me != nil {
		for id, name := range room.ParticipantNames {
			if id != me.ID {
				return name
			}
		}
	}
	return strings.Join(room.ParticipantIDs, ", ")
}

func (s *shell) dm(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	room, err := s.api.OpenDirectRoom(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Room %s with %s\n", room.ID, s.peerName(*room))
	return nil
}

func (s *shell) send(args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if _, err := s.api.SendMessage(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	return nil
}

func (s *shell) share(args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	reel := models.Reel{ID: args[1], VideoURL: args[2], Description: strings.Join(args[3:], " ")}
	ctx, cancel := s.ctx()
	defer cancel()
	msg, err := s.api.ShareReel(ctx, args[0], reel)
	if err != nil {
		return err
	}
	fmt.Printf("Shared in room %s\n", msg.RoomID)
	return nil
}

func (s *shell) messages(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return errUsage
	}
	limit, offset := 20, 0
	var err error
	if len(args) > 1 {
		if limit, err = strconv.Atoi(args[1]); err != nil {
			return errUsage
		}
	}
	if len(args) > 2 {
		if offset, err = strconv.Atoi(args[2]); err != nil {
			return errUsage
		}
	}
	ctx, cancel := s.ctx()
	defer cancel()
	messages, err := s.api.Messages(ctx, args[0], limit, offset)
	if err != nil {
		return err
	}
	for _, m := range messages {
		fmt.Println(formatMessage(m))
	}
	return nil
}

func formatMessage(m models.RoomMessage) string {
	body := m.Text
	if m.Type == models.ReelMessage && m.Reel != nil {
		body = "shared a reel: " + m.Reel.VideoURL
		if m.Reel.Description != "" {
			body += " (" + m.Reel.Description + ")"
		}
	}
	return fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Format(time.TimeOnly), m.SenderName, body)
}
