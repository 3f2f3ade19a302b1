package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a pricing experiment",
	Long: `Walk through creating a pricing experiment: name, then variants one by
one until you stop. Weights default to an equal split.`,
	RunE: runInteractiveInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInteractiveInit(cmd *cobra.Command, args []string) error {
	name, err := promptText("Experiment name", func(input string) error {
		if strings.TrimSpace(input) == "" {
			return fmt.Errorf("name is required")
		}
		return nil
	})
	if err != nil {
		return err
	}

	var variants []engine.VariantParams
	for {
		label := fmt.Sprintf("Variant %d name", len(variants)+1)
		if len(variants) >= 2 {
			label += " (empty to finish)"
		}

		variantName, err := promptText(label, nil)
		if err != nil {
			return err
		}
		if strings.TrimSpace(variantName) == "" {
			if len(variants) >= 2 {
				break
			}
			fmt.Println("At least 2 variants are required.")
			continue
		}

		priceStr, err := promptText(fmt.Sprintf("Price for %q", variantName), func(input string) error {
			p, err := strconv.ParseFloat(input, 64)
			if err != nil || p <= 0 {
				return fmt.Errorf("enter a positive number")
			}
			return nil
		})
		if err != nil {
			return err
		}
		price, _ := strconv.ParseFloat(priceStr, 64)

		variants = append(variants, engine.VariantParams{Name: variantName, Price: price})
	}

	return withEngine(func(eng *engine.Engine, _ store.Store) error {
		exp, err := eng.Create(context.Background(), tenant, engine.CreateParams{
			Name:     name,
			Variants: variants,
		})
		if err != nil {
			return fmt.Errorf("failed to create experiment: %w", err)
		}

		fmt.Printf("\nCreated experiment '%s' (%s):\n", exp.Name, shortID(exp.ID))
		for _, v := range exp.Variants {
			fmt.Printf("  %-16s $%.2f  %5.1f%%\n", v.Name, v.Price, v.Weight)
		}
		fmt.Printf("\nActivate it with:\n  priceforge activate %s\n", exp.ID)
		return nil
	})
}

func promptText(label string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
	}
	result, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			return "", fmt.Errorf("cancelled")
		}
		return "", err
	}
	return result, nil
}
