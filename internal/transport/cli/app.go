package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/ivgord/stockfolio/data/session"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/utils"
)

// App drives the interactive menu loop until the user quits or input ends.
type App struct {
	controller *Controller
}

func NewApp(controller *Controller) *App {
	return &App{controller: controller}
}

const authMenu = `
1) register
2) login
q) quit
`

const mainMenu = `
1) create portfolio
2) list portfolios
3) show portfolio
4) view portfolio data
5) add stocks
6) remove stocks
7) update date range
8) delete portfolio
9) export report
10) quote lookup
11) account info
12) logout
q) quit
`

func (a *App) Run(ctx context.Context) error {
	c := a.controller

	c.printf("stockfolio\n")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sess, err := c.currentSession(ctx)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.Error("can't read session", slog.String("err", err.Error()))
			sess = model.Session{}
		}

		var choice string
		if sess.LoggedIn() {
			c.printf("\n[%s]%s", sess.Username, mainMenu)
		} else {
			c.printf("%s", authMenu)
		}

		choice, err = c.prompt("choice")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if choice == "q" {
			return nil
		}

		handlerCtx := utils.CreateCtxWithRqID(ctx)

		if !sess.LoggedIn() {
			err = a.dispatchAuth(handlerCtx, choice)
		} else {
			err = a.dispatchMain(handlerCtx, choice, sess)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			slog.Error("handler failed", slog.String("err", err.Error()))
			c.printf("error: something went wrong, try again later\n")
		}
	}
}

func (a *App) dispatchAuth(ctx context.Context, choice string) error {
	switch choice {
	case "1":
		return a.controller.handleRegister(ctx)
	case "2":
		return a.controller.handleLogin(ctx)
	default:
		a.controller.printf("unknown choice\n")
		return nil
	}
}

func (a *App) dispatchMain(ctx context.Context, choice string, sess model.Session) error {
	switch choice {
	case "1":
		return a.controller.handleCreatePortfolio(ctx, sess)
	case "2":
		return a.controller.handleListPortfolios(ctx, sess)
	case "3":
		return a.controller.handleShowPortfolio(ctx, sess)
	case "4":
		return a.controller.handleShowData(ctx, sess)
	case "5":
		return a.controller.handleAddStocks(ctx, sess)
	case "6":
		return a.controller.handleRemoveStocks(ctx, sess)
	case "7":
		return a.controller.handleUpdateDates(ctx, sess)
	case "8":
		return a.controller.handleDeletePortfolio(ctx, sess)
	case "9":
		return a.controller.handleExportReport(ctx, sess)
	case "10":
		return a.controller.handleQuote(ctx, sess)
	case "11":
		return a.controller.handleAccount(ctx, sess)
	case "12":
		return a.controller.handleLogout(ctx)
	default:
		a.controller.printf("unknown choice\n")
		return nil
	}
}
