package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfroyo/confsync/pkg/config"
	"github.com/openfroyo/confsync/pkg/gateway"
	"github.com/openfroyo/confsync/pkg/model"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var (
		kinds   []string
		tenant  string
		outFile string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the live configuration as a document",
		Long: `Write the live configuration as a desired-state document that 'import'
accepts. Sections follow the dependency order of the kinds.`,
		Example: `  # Export everything as YAML
  confsync export

  # Export the switches and DNs of one tenant as JSON
  confsync export --tenant T1 --kind switches --kind dns -o t1.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := selectKinds(kinds)
			if err != nil {
				return err
			}

			outFormat := config.Format(format)
			if outFile != "" && !cmd.Flags().Changed("format") {
				if outFormat, err = config.FormatFromPath(outFile); err != nil {
					return err
				}
			}

			return opts.withSession(cmd, "", func(ctx context.Context, s *session) error {
				entities, err := s.liveEntities(ctx, selected, tenant)
				if err != nil {
					return err
				}

				if outFile == "" {
					return config.WriteDocument(s.out, entities, outFormat)
				}
				if err := writeFile(outFile, func(w io.Writer) error {
					return config.WriteDocument(w, entities, outFormat)
				}); err != nil {
					return err
				}

				s.logger.Info().Str("path", outFile).Int("entities", len(entities)).Msg("Configuration exported.")
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "export only these kinds or document sections")
	cmd.Flags().StringVarP(&tenant, "tenant", "t", "", "export only this tenant")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output file path (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", string(config.FormatYAML), "document format (yaml, json)")

	return cmd
}

// selectKinds resolves kind names, in registry order. No names selects every
// kind.
func selectKinds(names []string) ([]model.KindInfo, error) {
	if len(names) == 0 {
		return model.Kinds(), nil
	}

	wanted := make(map[model.Kind]bool, len(names))
	for _, name := range names {
		kind, err := model.ParseKind(name)
		if err != nil {
			return nil, err
		}
		wanted[kind] = true
	}

	var selected []model.KindInfo
	for _, info := range model.Kinds() {
		if wanted[info.Kind] {
			selected = append(selected, info)
		}
	}
	return selected, nil
}

// liveEntities retrieves the live entities of kinds. With a tenant, only the
// tenant itself and the entities it scopes are returned.
func (s *session) liveEntities(ctx context.Context, kinds []model.KindInfo, tenant string) ([]model.Entity, error) {
	store, err := s.Store(ctx)
	if err != nil {
		return nil, err
	}

	var entities []model.Entity
	for _, info := range kinds {
		if tenant != "" && info.Kind == model.KindTenant {
			remote, err := store.Retrieve(ctx, model.NewReference(model.KindTenant, "", tenant))
			if errors.Is(err, gateway.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			entities = append(entities, remote.Entity)
			continue
		}
		if tenant != "" && !info.TenantScoped {
			continue
		}

		remotes, err := store.RetrieveMany(ctx, info.Kind, gateway.Filter{Tenant: tenant})
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve %s: %w", info.DocumentKey, err)
		}
		for _, remote := range remotes {
			entities = append(entities, remote.Entity)
		}
	}
	return entities, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
