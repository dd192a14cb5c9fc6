package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hongminglow/phonebook/internal/app"
	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/models/dto"
	"github.com/hongminglow/phonebook/internal/render"
)

func (c *cli) addCmd() *cobra.Command {
	var contact models.Contact
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Example: `  phonebook add --first Jane --last Doe --phone "(555) 123-4567" \
    --email jane@example.com --address "1 Main St"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				if err := a.Book.Add(cmd.Context(), contact); err != nil {
					return err
				}
				return c.emit(cmd, "contact added", contact, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Contact added successfully.")
					return err
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&contact.FirstName, "first", "", "first name")
	f.StringVar(&contact.LastName, "last", "", "last name")
	f.StringVar(&contact.Phone, "phone", "", "phone number, (###) ###-####")
	f.StringVar(&contact.Email, "email", "", "email address (optional)")
	f.StringVar(&contact.Address, "address", "", "postal address (optional)")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var sortBy string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				if sortBy != "" {
					field, err := models.ParseField(sortBy)
					if err != nil {
						return err
					}
					if err := a.Book.Sort(field); err != nil {
						return err
					}
				}
				return c.emitContacts(cmd, a.Book.List())
			})
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "order the listing by a field (view only)")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Find contacts whose name or phone contains QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				return c.emitContacts(cmd, a.Book.Search(args[0]))
			})
		},
	}
}

func (c *cli) updateCmd() *cobra.Command {
	var u dto.ContactUpdate
	cmd := &cobra.Command{
		Use:   "update PHONE",
		Short: "Change fields of the first contact with PHONE",
		Long: `Change fields of the first contact whose phone number is PHONE.
Flags left unset (or blank) keep the current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				updated, err := a.Book.Update(cmd.Context(), args[0], u)
				if err != nil {
					return err
				}
				return c.emit(cmd, "contact updated", updated, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Contact updated successfully.")
					return err
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&u.FirstName, "first", "", "new first name")
	f.StringVar(&u.LastName, "last", "", "new last name")
	f.StringVar(&u.Phone, "new-phone", "", "new phone number, (###) ###-####")
	f.StringVar(&u.Email, "email", "", "new email address")
	f.StringVar(&u.Address, "address", "", "new postal address")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PHONE",
		Short: "Delete every contact with PHONE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				removed, err := a.Book.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.emit(cmd, "contact deleted", map[string]int{"removed": removed}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "Contact deleted successfully.")
					return err
				})
			})
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add every row of a CSV file",
		Long: `Add every row of a CSV file with a First Name, Last Name and Phone Number
header (Email Address and Address are optional). Invalid rows are reported
and skipped; every accepted row is saved on its own.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				report, err := a.Book.Import(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.emit(cmd, "import finished", report, func(w io.Writer) error {
					return printImportReport(w, report)
				})
			})
		},
	}
}

func (c *cli) sortCmd() *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Show contacts ordered by a field",
		Long: `Show contacts ordered ascending by a field (default Last Name).
The order is not written back to the contacts file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			field, err := models.ParseField(by)
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(a *app.App) error {
				if err := a.Book.Sort(field); err != nil {
					return err
				}
				return c.emitContacts(cmd, a.Book.List())
			})
		},
	}
	cmd.Flags().StringVar(&by, "by", string(models.FieldLastName), "field to sort by")
	return cmd
}

func (c *cli) emitContacts(cmd *cobra.Command, contacts []models.Contact) error {
	if contacts == nil {
		contacts = []models.Contact{}
	}
	return c.emit(cmd, fmt.Sprintf("%d contact(s)", len(contacts)), contacts, func(w io.Writer) error {
		return render.Table(w, contacts)
	})
}

func printImportReport(w io.Writer, report dto.ImportReport) error {
	if _, err := fmt.Fprintf(w, "Imported %d contact(s).\n", report.Added); err != nil {
		return err
	}
	for _, r := range report.Rejected {
		if _, err := fmt.Fprintf(w, "  line %d rejected (%s): %s\n", r.Line, r.Contact.FullName(), r.Reason); err != nil {
			return err
		}
	}
	return nil
}
