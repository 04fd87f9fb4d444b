package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/medchat/internal/client/client"
	"github.com/dmitrijs2005/medchat/internal/common"
)

func (a *App) Health(ctx context.Context) error {
	h, err := a.api.Health(ctx)
	if err != nil {
		a.setMode(ModeOffline)
		return err
	}
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "status: %s, AI service: %s, server time: %s\n", h.Status, h.AIService, h.Timestamp)
	return nil
}

func (a *App) Info(ctx context.Context) error {
	info, err := a.api.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", info.Message, info.Version)

	keys := make([]string, 0, len(info.Endpoints))
	for k := range info.Endpoints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "  %-32s %s\n", k, info.Endpoints[k])
	}
	return nil
}

func (a *App) Register(ctx context.Context) error {
	return a.authenticate(ctx, a.api.Register, "Registered and logged in")
}

func (a *App) Login(ctx context.Context) error {
	return a.authenticate(ctx, a.api.Login, "Login successful")
}

func (a *App) authenticate(ctx context.Context, call func(context.Context, string, []byte) error, success string) error {
	userName, err := GetSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := call(ctx, userName, password); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}

	a.setUser(userName)
	fmt.Fprintln(a.out, success)
	return nil
}

// NewSession prints a random session id to use with send.
func (a *App) NewSession(ctx context.Context) error {
	id, err := common.MakeRandHexString(8)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "session id: %s\n", id)
	return nil
}

func (a *App) Send(ctx context.Context, sessionID, text string) error {
	res, err := a.api.Send(ctx, sessionID, text)
	if err != nil {
		return a.checkAuth(err)
	}
	fmt.Fprintf(a.out, "assistant: %s\n(%d messages in %s)\n", res.Response, len(res.History), sessionID)
	return nil
}

func (a *App) History(ctx context.Context, sessionID string) error {
	msgs, err := a.api.History(ctx, sessionID)
	if err != nil {
		return a.checkAuth(err)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages")
		return nil
	}
	for _, m := range msgs {
		fmt.Fprintf(a.out, "[%s] %s: %s\n", m.Timestamp, m.Role, m.Content)
	}
	return nil
}

func (a *App) Sessions(ctx context.Context) error {
	list, err := a.api.Sessions(ctx)
	if err != nil {
		return a.checkAuth(err)
	}
	fmt.Fprintf(a.out, "%d session(s)\n", list.TotalSessions)
	for _, s := range list.Sessions {
		last := "-"
		if s.LastMessageContent != nil {
			last = *s.LastMessageContent
		}
		fmt.Fprintf(a.out, "  %s  %d messages  %s\n", s.SessionID, s.MessageCount, last)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, sessionID string) error {
	msg, err := a.api.DeleteSession(ctx, sessionID)
	if err != nil {
		return a.checkAuth(err)
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	msg, err := a.api.ClearSessions(ctx)
	if err != nil {
		return a.checkAuth(err)
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.api.Logout()
	a.setUser("")
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// checkAuth drops the local session when the server rejected the token.
func (a *App) checkAuth(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		a.api.Logout()
		a.setUser("")
		return fmt.Errorf("%w, please log in again", err)
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
	}
	return err
}
