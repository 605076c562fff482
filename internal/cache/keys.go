package cache

import "context"

// Cache namespaces. Keys are namespace-qualified as <namespace>::<key>
// except the all-addresses namespace, which holds a single entry under
// the bare namespace name.
const (
	NamespaceAddress       = "address"       // single entity, keyed by id
	NamespaceAddresses     = "addresses"     // full list, constant key
	NamespaceUserAddresses = "userAddresses" // per-user list, keyed by user id

	keySeparator = "::"
)

// AddressKey returns the single-entity cache key for an address id.
func AddressKey(id string) string {
	return NamespaceAddress + keySeparator + id
}

// AllAddressesKey returns the constant key holding the full address list.
func AllAddressesKey() string {
	return NamespaceAddresses
}

// UserAddressesKey returns the per-user list cache key.
func UserAddressesKey(userID string) string {
	return NamespaceUserAddresses + keySeparator + userID
}

// Namespaces returns every cache namespace this service uses.
func Namespaces() []string {
	return []string{NamespaceAddress, NamespaceAddresses, NamespaceUserAddresses}
}

// ClearNamespace removes every entry belonging to the given namespace.
func ClearNamespace(ctx context.Context, c Cache, namespace string) error {
	if namespace == NamespaceAddresses {
		return c.Delete(ctx, AllAddressesKey())
	}
	return c.DeleteByPrefix(ctx, namespace+keySeparator)
}
