package route

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/fib/store"
)

type keyFlags struct {
	family    string
	prefix    string
	prefixLen int
	protocol  uint8
	adminPref uint8
}

func (f *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.family, "family", "ipv4", "Address family (ipv4|ipv6)")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "Route prefix, raw bytes as a string (required)")
	cmd.Flags().IntVar(&f.prefixLen, "len", 0, "Prefix length in bits (required)")
	cmd.Flags().Uint8Var(&f.protocol, "protocol", 0, "Owning routing protocol ID")
	cmd.Flags().Uint8Var(&f.adminPref, "admin-pref", 0, "Administrative preference (lower wins)")
	_ = cmd.MarkFlagRequired("prefix")
	_ = cmd.MarkFlagRequired("len")
}

func (f *keyFlags) routeKey() (fib.RouteKey, error) {
	var family store.Family
	switch f.family {
	case "ipv4":
		family = store.FamilyIPv4
	case "ipv6":
		family = store.FamilyIPv6
	default:
		return fib.RouteKey{}, fmt.Errorf("unknown family %q, want ipv4 or ipv6", f.family)
	}
	return fib.RouteKey{
		Family:    family,
		Prefix:    f.prefix,
		PrefixLen: f.prefixLen,
		Protocol:  f.protocol,
		AdminPref: f.adminPref,
	}, nil
}
