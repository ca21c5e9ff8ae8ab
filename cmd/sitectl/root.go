package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/maht0rz/spartans-club-web/internal/content"
	"github.com/maht0rz/spartans-club-web/internal/i18n"
	"github.com/maht0rz/spartans-club-web/internal/sections"
	"github.com/maht0rz/spartans-club-web/internal/sitemap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Spartans Club site tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRoutesCmd(), newSitemapCmd(), newCheckCmd())
	return root
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the localized path of every section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := sections.Default()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			header := []string{"SECTION"}
			for _, l := range reg.Locales() {
				header = append(header, strings.ToUpper(l.String()))
			}
			fmt.Fprintln(tw, strings.Join(header, "\t"))
			for _, id := range reg.IDs() {
				row := []string{string(id)}
				for _, l := range reg.Locales() {
					row = append(row, reg.Path(l, id))
				}
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			return tw.Flush()
		},
	}
}

func newSitemapCmd() *cobra.Command {
	var (
		base   string
		public string
		hero   string
		images bool
	)
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Write sitemap.xml (or the image sitemap) to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := sections.Default()
			var (
				out []byte
				err error
			)
			if images {
				var urls []sitemap.URL
				urls, err = sitemap.Images(reg, base, sitemap.ImageOptions{Public: public, Hero: hero})
				if err != nil {
					return err
				}
				out, err = sitemap.RenderImages(urls)
			} else {
				out, err = sitemap.Render(sitemap.Pages(reg, base, time.Now()))
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&base, "base", "https://www.spartans.sk", "canonical site origin")
	cmd.Flags().StringVar(&public, "public", "public", "public assets directory")
	cmd.Flags().StringVar(&hero, "hero", "/vincent.png", "hero image attached to the home page")
	cmd.Flags().BoolVar(&images, "images", false, "write the image sitemap instead")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var localesDir, contentDir string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate dictionaries and content files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var problems []string

			bundle, err := i18n.Load(localesDir, i18n.Default, i18n.All)
			if err != nil {
				problems = append(problems, err.Error())
			} else {
				problems = append(problems, keyDrift(bundle)...)
			}

			site, err := content.NewStore(contentDir).Load(context.Background())
			if err != nil {
				problems = append(problems, err.Error())
			} else if err := site.Validate(i18n.All); err != nil {
				problems = append(problems, err.Error())
			}

			if len(problems) > 0 {
				for _, p := range problems {
					fmt.Fprintln(cmd.ErrOrStderr(), "✗", p)
				}
				return errors.New("check failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d locales, %d sessions, %d trainers, %d faq entries\n",
				len(bundle.Supported()), len(site.Sessions), len(site.Trainers), len(site.FAQ))
			return nil
		},
	}
	cmd.Flags().StringVar(&localesDir, "locales", "locales", "dictionary directory")
	cmd.Flags().StringVar(&contentDir, "content", "content", "content directory")
	return cmd
}

// keyDrift lists keys present in one dictionary but not another.
func keyDrift(b *i18n.Bundle) []string {
	all := map[string]bool{}
	have := map[i18n.Locale]map[string]bool{}
	for _, l := range b.Supported() {
		have[l] = map[string]bool{}
		for _, k := range b.Keys(l) {
			have[l][k] = true
			all[k] = true
		}
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []string
	for _, l := range b.Supported() {
		for _, k := range keys {
			if !have[l][k] {
				out = append(out, fmt.Sprintf("locales/%s.json: missing key %q", l, k))
			}
		}
	}
	return out
}
