package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"stickerd/internal/config"
	"stickerd/internal/manifest"
	"stickerd/internal/packstore"
	"stickerd/internal/provider"
	"stickerd/internal/validator"
)

func newPackCommand(ctx *commandContext) *cobra.Command {
	packCmd := &cobra.Command{
		Use:   "pack",
		Short: "Create, edit, inspect, and validate sticker packs",
	}

	packCmd.AddCommand(newPackCreateCommand(ctx))
	packCmd.AddCommand(newPackListCommand(ctx))
	packCmd.AddCommand(newPackShowCommand(ctx))
	packCmd.AddCommand(newPackAddStickerCommand(ctx))
	packCmd.AddCommand(newPackReplaceStickerCommand(ctx))
	packCmd.AddCommand(newPackDeleteStickerCommand(ctx))
	packCmd.AddCommand(newPackDeleteCommand(ctx))
	packCmd.AddCommand(newPackValidateCommand(ctx))
	packCmd.AddCommand(newPackImportCommand(ctx))

	return packCmd
}

func newPackCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		name       string
		publisher  string
		trayPath   string
		email      string
		website    string
		privacy    string
		license    string
		animated   bool
		avoidCache bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty pack and print its identifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *packstore.Store, cfg *config.Config) error {
				src, err := readSourceImage(trayPath)
				if err != nil {
					return err
				}

				identifier, err := store.AllocateIdentifier()
				if err != nil {
					return err
				}

				pack := manifest.Pack{
					Identifier:              identifier,
					Name:                    name,
					Publisher:               publisher,
					PublisherEmail:          email,
					PublisherWebsite:        website,
					PrivacyPolicyWebsite:    privacy,
					LicenseAgreementWebsite: license,
					AnimatedStickerPack:     animated,
					AvoidCache:              avoidCache,
				}

				trayName, err := store.SaveTrayIcon(cmd.Context(), identifier, src)
				if err != nil {
					return err
				}
				pack.TrayImageFile = trayName

				if err := store.SaveManifest(pack); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), identifier)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Pack display name")
	cmd.Flags().StringVar(&publisher, "publisher", "", "Pack publisher")
	cmd.Flags().StringVar(&trayPath, "tray", "", "Source image for the tray icon")
	cmd.Flags().StringVar(&email, "email", "", "Publisher email")
	cmd.Flags().StringVar(&website, "website", "", "Publisher website")
	cmd.Flags().StringVar(&privacy, "privacy-policy", "", "Privacy policy URL")
	cmd.Flags().StringVar(&license, "license-agreement", "", "License agreement URL")
	cmd.Flags().BoolVar(&animated, "animated", false, "Mark the pack as animated")
	cmd.Flags().BoolVar(&avoidCache, "avoid-cache", false, "Ask the client not to cache stickers")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("publisher")
	_ = cmd.MarkFlagRequired("tray")

	return cmd
}

func newPackListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the packs in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := ctx.service()
			if err != nil {
				return err
			}
			packs, err := svc.ListPacks()
			if err != nil {
				return err
			}

			if jsonOut {
				if packs == nil {
					packs = []provider.PackRow{}
				}
				return writeJSON(cmd, packs)
			}

			if len(packs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No packs found.")
				return nil
			}

			rows := make([][]string, 0, len(packs))
			for _, pack := range packs {
				stickers, err := svc.ListStickers(pack.Identifier)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					pack.Identifier,
					pack.Name,
					pack.Publisher,
					strconv.Itoa(len(stickers)),
					yesNo(pack.AnimatedStickerPack),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Identifier", "Name", "Publisher", "Stickers", "Animated"},
				rows, 3))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPackShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <identifier>",
		Short: "Show one pack's metadata and stickers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := ctx.service()
			if err != nil {
				return err
			}
			identifier := args[0]

			pack, err := svc.GetPack(identifier)
			if err != nil {
				return err
			}
			stickers, err := svc.ListStickers(identifier)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, struct {
					Pack     provider.PackRow      `json:"pack"`
					Stickers []provider.StickerRow `json:"stickers"`
				}{pack, stickers})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Identifier: %s\n", pack.Identifier)
			fmt.Fprintf(out, "Name:       %s\n", pack.Name)
			fmt.Fprintf(out, "Publisher:  %s\n", pack.Publisher)
			fmt.Fprintf(out, "Tray icon:  %s\n", pack.TrayImageFile)
			fmt.Fprintf(out, "Animated:   %s\n", yesNo(pack.AnimatedStickerPack))
			fmt.Fprintf(out, "Avoid cache: %s\n", yesNo(pack.AvoidCache))
			if pack.PublisherEmail != "" {
				fmt.Fprintf(out, "Email:      %s\n", pack.PublisherEmail)
			}
			if pack.PublisherWebsite != "" {
				fmt.Fprintf(out, "Website:    %s\n", pack.PublisherWebsite)
			}

			if len(stickers) == 0 {
				fmt.Fprintln(out, "No stickers yet.")
				return nil
			}

			sizes := make(map[string]int64, len(stickers))
			var total int64
			if packs, err := manifest.DecodeFile(filepath.Join(cfg.PacksRoot(), identifier, manifest.FileName)); err == nil {
				for _, p := range packs {
					if p.Identifier != identifier {
						continue
					}
					for _, sticker := range p.Stickers {
						sizes[sticker.ImageFile] = sticker.Size
						total += sticker.Size
					}
				}
			}

			rows := make([][]string, 0, len(stickers))
			for _, sticker := range stickers {
				rows = append(rows, []string{
					sticker.FileName,
					humanize.IBytes(uint64(sizes[sticker.FileName])),
					sticker.Emoji,
					sticker.AccessibilityText,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"File", "Size", "Emoji", "Accessibility"}, rows, 1))
			fmt.Fprintf(out, "Total sticker bytes: %s\n", humanize.IBytes(uint64(total)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPackAddStickerCommand(ctx *commandContext) *cobra.Command {
	var (
		emojis []string
		a11y   string
	)

	cmd := &cobra.Command{
		Use:   "add-sticker <identifier> <image>",
		Short: "Encode an image as a new sticker and record it in the manifest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *packstore.Store, cfg *config.Config) error {
				identifier := args[0]
				src, err := readSourceImage(args[1])
				if err != nil {
					return err
				}

				pack, err := store.LoadPack(identifier)
				if err != nil {
					return err
				}

				index, err := store.NextStickerIndex(identifier)
				if err != nil {
					return err
				}
				sticker, err := store.AddSticker(cmd.Context(), identifier, index, src, emojis, a11y)
				if err != nil {
					return err
				}
				pack.Stickers = append(pack.Stickers, sticker)
				if err := store.SaveManifest(pack); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sticker.ImageFile)
				if count := len(pack.Stickers); count > 30 {
					fmt.Fprintf(cmd.ErrOrStderr(),
						"warning: pack now has %d stickers; packs over 30 fail validation\n", count)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&emojis, "emoji", nil, "Emoji associated with the sticker (repeatable, up to 3)")
	cmd.Flags().StringVar(&a11y, "accessibility", "", "Accessibility text for the sticker")
	return cmd
}

func newPackReplaceStickerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "replace-sticker <identifier> <filename> <image>",
		Short: "Re-encode an existing sticker file from a new source image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *packstore.Store, cfg *config.Config) error {
				src, err := readSourceImage(args[2])
				if err != nil {
					return err
				}
				if err := store.ReplaceSticker(cmd.Context(), args[0], args[1], src); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Replaced %s in %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func newPackDeleteStickerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-sticker <identifier> <filename>",
		Short: "Remove a sticker file and its manifest entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *packstore.Store, cfg *config.Config) error {
				identifier, filename := args[0], args[1]

				pack, err := store.LoadPack(identifier)
				if err != nil {
					return err
				}

				kept := pack.Stickers[:0]
				removed := false
				for _, sticker := range pack.Stickers {
					if sticker.ImageFile == filename {
						removed = true
						continue
					}
					kept = append(kept, sticker)
				}
				pack.Stickers = kept

				existed, err := store.DeleteAsset(identifier, filename)
				if err != nil {
					return err
				}
				if !existed && !removed {
					return fmt.Errorf("pack %s has no sticker %s", identifier, filename)
				}
				if removed {
					if err := store.SaveManifest(pack); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from %s\n", filename, identifier)
				return nil
			})
		},
	}
}

func newPackDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <identifier>",
		Short: "Delete a pack and all of its assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *packstore.Store, cfg *config.Config) error {
				existed, err := store.DeletePack(args[0])
				if err != nil {
					return err
				}
				if !existed {
					return fmt.Errorf("no pack %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newPackValidateCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "validate [identifier]",
		Short: "Check packs against the client publishing rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := ctx.service()
			if err != nil {
				return err
			}

			var identifiers []string
			switch {
			case all:
				rows, err := svc.ListPacks()
				if err != nil {
					return err
				}
				for _, row := range rows {
					identifiers = append(identifiers, row.Identifier)
				}
			case len(args) == 1:
				identifiers = args
			default:
				return errors.New("provide a pack identifier or --all")
			}

			out := cmd.OutOrStdout()
			failures := 0
			for _, identifier := range identifiers {
				if err := validatePack(cfg, svc, identifier); err != nil {
					failures++
					fmt.Fprintf(out, "FAIL %s: %v\n", identifier, err)
					continue
				}
				fmt.Fprintf(out, "OK   %s\n", identifier)
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d packs failed validation", failures, len(identifiers))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Validate every pack in the store")
	return cmd
}

func validatePack(cfg *config.Config, svc *provider.Service, identifier string) error {
	packs, err := manifest.DecodeFile(filepath.Join(cfg.PacksRoot(), identifier, manifest.FileName))
	if err != nil {
		return err
	}
	for _, pack := range packs {
		if pack.Identifier == identifier {
			return validator.Verify(pack, svc.FetchAssetBytes)
		}
	}
	return fmt.Errorf("manifest names no pack %q", identifier)
}

func newPackImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <directory>",
		Short: "Copy an externally prepared pack directory into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *packstore.Store, cfg *config.Config) error {
				dir, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				identifier, err := store.ImportPack(cmd.Context(), dir)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), identifier)
				return nil
			})
		},
	}
}

func readSourceImage(path string) ([]byte, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", expanded)
	}
	if len(data) > 32<<20 {
		return nil, fmt.Errorf("image %s is %s; refusing sources over %s",
			expanded, humanize.IBytes(uint64(len(data))), humanize.IBytes(32<<20))
	}
	return data, nil
}
