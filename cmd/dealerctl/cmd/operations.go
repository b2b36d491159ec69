package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagSets []string

func init() {
	for _, c := range []*cobra.Command{cascadeCmd, managersCmd, validateCmd} {
		c.Flags().StringArrayVar(&flagSets, "set", nil, "Field change to apply, field=value (repeatable, applied in order)")
	}

	validateCmd.Flags().String("username", "", "Account username")
	validateCmd.Flags().String("email", "", "Account email")
	validateCmd.Flags().String("password", "", "Account password")
	validateCmd.Flags().String("confirm-password", "", "Account password confirmation")
	validateCmd.Flags().String("business-name", "", "Dealer business name")
	validateCmd.Flags().String("dealer-code", "", "Dealer code")
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the role catalog",
	RunE: func(_ *cobra.Command, _ []string) error {
		type roleView struct {
			Name                 string   `json:"name"`
			Title                string   `json:"title"`
			RequiredScopes       []string `json:"required_scopes"`
			EligibleManagerRoles []string `json:"eligible_manager_roles"`
			ManagerMandatory     bool     `json:"manager_mandatory"`
		}

		var roles []roleView
		if err := newAPIClient().do(http.MethodGet, "/api/v1/roles", nil, &roles); err != nil {
			return err
		}
		if flagOutput == "json" {
			return printJSON(roles)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTITLE\tREQUIRED SCOPES\tMANAGER ROLES\tMANAGER MANDATORY")
		for _, r := range roles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
				r.Name, r.Title,
				strings.Join(r.RequiredScopes, ","),
				strings.Join(r.EligibleManagerRoles, ","),
				r.ManagerMandatory,
			)
		}
		return w.Flush()
	},
}

var cascadeCmd = &cobra.Command{
	Use:   "cascade",
	Short: "Apply field changes and show the resulting cascade",
	Example: `  dealerctl cascade --set role=territory_manager --set region_id=r1
  dealerctl cascade -k dealer --set region_id=r1 --set area_id=a2`,
	RunE: func(_ *cobra.Command, _ []string) error {
		c := newAPIClient()
		view, err := c.openForm(flagKind, flagSets)
		if view != nil {
			defer c.closeForm(view.ID)
		}
		if err != nil {
			return err
		}
		if flagOutput == "json" {
			return printJSON(view)
		}

		fmt.Printf("state: %s\n", view.State)
		if len(view.ResetTo) > 0 {
			fmt.Printf("reset by last change: %s\n", strings.Join(view.ResetTo, ", "))
		}
		fmt.Println("draft:")
		for _, f := range []string{"role", "region_id", "area_id", "territory_id", "dealer_id", "manager_id"} {
			v, _ := view.Draft[f].(string)
			if v == "" {
				v = "-"
			}
			fmt.Printf("  %-14s %s\n", f, v)
		}
		fmt.Printf("options: %d areas, %d territories, %d dealers\n",
			len(view.Options.Areas), len(view.Options.Territories), len(view.Options.Dealers))
		return nil
	},
}

var managersCmd = &cobra.Command{
	Use:   "managers",
	Short: "Show manager candidates for a draft",
	Example: `  dealerctl managers --set role=area_manager --set region_id=r1
  dealerctl managers --set role=dealer_staff --set dealer_id=d42`,
	RunE: func(_ *cobra.Command, _ []string) error {
		c := newAPIClient()
		view, err := c.openForm(flagKind, flagSets)
		if view != nil {
			defer c.closeForm(view.ID)
		}
		if err != nil {
			return err
		}
		if flagOutput == "json" {
			return printJSON(view.Candidates)
		}

		if view.Warning != "" {
			fmt.Printf("warning: %s\n", view.Warning)
		}
		if len(view.Candidates) == 0 {
			fmt.Println("no candidates")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tELIGIBLE\tNOTE")
		for _, cand := range view.Candidates {
			note := cand.Warning
			if note == "" {
				note = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n",
				cand.ID, cand.Username, cand.RoleName, cand.Eligible, note)
		}
		return w.Flush()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a draft without submitting it",
	Example: `  dealerctl validate --set role=territory_manager --set region_id=r1 \
    --username alice --email alice@example.com --password s3cret99 --confirm-password s3cret99`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := newAPIClient()
		view, err := c.openForm(flagKind, flagSets)
		if view != nil {
			defer c.closeForm(view.ID)
		}
		if err != nil {
			return err
		}

		account := map[string]string{}
		for flagName, field := range map[string]string{
			"username":         "username",
			"email":            "email",
			"password":         "password",
			"confirm-password": "confirm_password",
			"business-name":    "business_name",
			"dealer-code":      "dealer_code",
		} {
			if v, _ := cmd.Flags().GetString(flagName); v != "" {
				account[field] = v
			}
		}
		if len(account) > 0 {
			if err := c.do(http.MethodPatch, "/api/v1/forms/"+view.ID+"/account", account, view); err != nil {
				return err
			}
		}

		if err := c.do(http.MethodPost, "/api/v1/forms/"+view.ID+"/validate", nil, view); err != nil {
			return err
		}
		if flagOutput == "json" {
			return printJSON(view.Errors)
		}

		if len(view.Errors) == 0 {
			fmt.Println("draft is valid")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tERROR")
		for field, msg := range view.Errors {
			fmt.Fprintf(w, "%s\t%s\n", field, msg)
		}
		return w.Flush()
	},
}
