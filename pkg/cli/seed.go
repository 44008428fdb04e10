package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/opscopilot-dev/opscopilot/pkg/cli/config"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
	"github.com/opscopilot-dev/opscopilot/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// seedFixture is the TOML layout of a seed file. Orders and tickets
// reference customers by email so fixture authors never deal with row IDs.
type seedFixture struct {
	Customers []seedCustomer `toml:"customer"`
	Orders    []seedOrder    `toml:"order"`
	Tickets   []seedTicket   `toml:"ticket"`
}

type seedCustomer struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
	Tier  string `toml:"tier"`
}

type seedOrder struct {
	CustomerEmail   string  `toml:"customer_email"`
	ProductName     string  `toml:"product_name"`
	ProductCategory string  `toml:"product_category"`
	Status          string  `toml:"status"`
	Total           float64 `toml:"total"`
}

type seedTicket struct {
	CustomerEmail string `toml:"customer_email"`
	Subject       string `toml:"subject"`
	Body          string `toml:"body"`
	Status        string `toml:"status"`
	Priority      string `toml:"priority"`
	Category      string `toml:"category"`
}

func cmdSeed() *cli.Command {
	var fixturePath string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "fixture",
			Usage:       "TOML fixture file to load",
			Value:       "seed.toml",
			Sources:     cli.EnvVars("OPSCOPILOT_SEED_FIXTURE"),
			Destination: &fixturePath,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Load fixture customers, orders and tickets into the store",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			data, err := os.ReadFile(fixturePath)
			if err != nil {
				return goerr.Wrap(err, "failed to read fixture file", goerr.V("path", fixturePath))
			}

			var fixture seedFixture
			if err := toml.Unmarshal(data, &fixture); err != nil {
				return goerr.Wrap(err, "failed to parse TOML fixture", goerr.V("path", fixturePath))
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			if err := loadFixture(ctx, repo, &fixture); err != nil {
				return err
			}

			logging.Default().Info("Fixture loaded",
				"customers", len(fixture.Customers),
				"orders", len(fixture.Orders),
				"tickets", len(fixture.Tickets),
			)
			return nil
		},
	}
}

func loadFixture(ctx context.Context, repo interfaces.Repository, fixture *seedFixture) error {
	customerIDs := make(map[string]int64, len(fixture.Customers))

	for _, c := range fixture.Customers {
		if c.Email == "" {
			return goerr.New("fixture customer is missing email", goerr.V("name", c.Name))
		}

		created, err := repo.Customer().Create(ctx, &model.Customer{
			Name:  c.Name,
			Email: c.Email,
			Tier:  c.Tier,
		})
		if err != nil {
			return goerr.Wrap(err, "failed to create fixture customer", goerr.V("email", c.Email))
		}
		customerIDs[c.Email] = created.ID
	}

	for _, o := range fixture.Orders {
		customerID, ok := customerIDs[o.CustomerEmail]
		if !ok {
			return goerr.New("fixture order references unknown customer", goerr.V("email", o.CustomerEmail))
		}

		_, err := repo.Order().Create(ctx, &model.Order{
			CustomerID:      customerID,
			ProductName:     o.ProductName,
			ProductCategory: o.ProductCategory,
			Status:          o.Status,
			Total:           o.Total,
		})
		if err != nil {
			return goerr.Wrap(err, "failed to create fixture order", goerr.V("product", o.ProductName))
		}
	}

	for _, t := range fixture.Tickets {
		status := types.TicketStatus(t.Status).Normalize()
		if _, err := types.ParseTicketStatus(status.String()); err != nil {
			return goerr.Wrap(err, "invalid fixture ticket status", goerr.V("subject", t.Subject))
		}
		priority := types.TicketPriority(t.Priority).Normalize()
		if _, err := types.ParseTicketPriority(priority.String()); err != nil {
			return goerr.Wrap(err, "invalid fixture ticket priority", goerr.V("subject", t.Subject))
		}

		ticket := &model.Ticket{
			Subject:  t.Subject,
			Body:     t.Body,
			Status:   status,
			Priority: priority,
			Category: t.Category,
		}
		if t.CustomerEmail != "" {
			customerID, ok := customerIDs[t.CustomerEmail]
			if !ok {
				return goerr.New("fixture ticket references unknown customer", goerr.V("email", t.CustomerEmail))
			}
			ticket.CustomerID = &customerID
		}

		if _, err := repo.Ticket().Create(ctx, ticket); err != nil {
			return goerr.Wrap(err, "failed to create fixture ticket", goerr.V("subject", t.Subject))
		}
	}

	return nil
}
