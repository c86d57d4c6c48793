// Package destination turns destination configuration into a fork resolver.
//
// Each destination name is looked up in the configured routes, falling back
// to the default sink. The resolver is called once per name, the first time
// the name is classified, and the returned sink is owned by the fork.
package destination
