package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teshtvele/groups-management/internal/client"
)

type personFlags struct {
	last, first, middle string
	birth, gender       string
	address             string
	phone, email        string
}

func (p *personFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&p.last, "last", "", "Last name (required)")
	fs.StringVar(&p.first, "first", "", "First name (required)")
	fs.StringVar(&p.middle, "middle", "", "Middle name")
	fs.StringVar(&p.birth, "birth", "", "Birth date YYYY-MM-DD (required)")
	fs.StringVar(&p.gender, "gender", "", "Gender M|F (required)")
	fs.StringVar(&p.address, "address", "", "Address (required)")
	fs.StringVar(&p.phone, "phone", "", "Phone number")
	fs.StringVar(&p.email, "email", "", "Email")
	for _, name := range []string{"last", "first", "birth", "gender", "address"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (p *personFlags) request() client.PersonRequest {
	return client.PersonRequest{
		LastName:   p.last,
		FirstName:  p.first,
		MiddleName: optional(p.middle),
		BirthDate:  p.birth,
		Gender:     p.gender,
		Address:    p.address,
		Phone:      optional(p.phone),
		Email:      optional(p.email),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newPersonCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "person", Short: "Person operations"}

	// create
	var (
		create      personFlags
		changeSetID int64
		author      string
		reason      string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a person, joining a matching group or starting a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			req := create.request()
			if changeSetID > 0 {
				req.ChangeSetID = &changeSetID
			}
			req.Author, req.Reason = author, reason
			p, err := c.CreatePerson(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	create.bind(createCmd)
	createCmd.Flags().Int64Var(&changeSetID, "changeset", 0, "Attribute the write to an existing changeset")
	createCmd.Flags().StringVar(&author, "author", "", "Author of a new changeset")
	createCmd.Flags().StringVar(&reason, "reason", "", "Reason of a new changeset")
	cmd.AddCommand(createCmd)

	// match
	var match personFlags
	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Show which group a person would join without writing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			res, err := c.MatchPerson(cmd.Context(), match.request())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	match.bind(matchCmd)
	cmd.AddCommand(matchCmd)

	// get
	cmd.AddCommand(&cobra.Command{
		Use:   "get PERSON_ID",
		Short: "Get a person record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "PERSON_ID")
			if err != nil {
				return err
			}
			c, err := f.client()
			if err != nil {
				return err
			}
			p, err := c.GetPerson(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	})

	// list
	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List person records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			page, err := c.ListPersons(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Page size (server default when 0)")
	listCmd.Flags().IntVarP(&offset, "offset", "o", 0, "Rows to skip")
	cmd.AddCommand(listCmd)

	// search
	var q client.SearchQuery
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search person records by substring or exact phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if q == (client.SearchQuery{Limit: q.Limit, Offset: q.Offset}) {
				return fmt.Errorf("at least one search field is required")
			}
			c, err := f.client()
			if err != nil {
				return err
			}
			page, err := c.SearchPersons(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	sf := searchCmd.Flags()
	sf.StringVar(&q.LastName, "last", "", "Last name contains")
	sf.StringVar(&q.FirstName, "first", "", "First name contains")
	sf.StringVar(&q.MiddleName, "middle", "", "Middle name contains")
	sf.StringVar(&q.Address, "address", "", "Address contains")
	sf.StringVar(&q.Email, "email", "", "Email contains")
	sf.StringVar(&q.Phone, "phone", "", "Phone, exact after normalisation")
	sf.IntVarP(&q.Limit, "limit", "l", 0, "Page size (server default when 0)")
	sf.IntVarP(&q.Offset, "offset", "o", 0, "Rows to skip")
	cmd.AddCommand(searchCmd)

	return cmd
}
