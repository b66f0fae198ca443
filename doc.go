// Package xmlfactory builds XML documents through a parser factory hardened
// against XML external entity (XXE) and DTD injection.
//
// The factory is constructed once per FactoryProvider, on first use, with
// DOCTYPE declarations disallowed and both external entity features turned
// off. Builders derived from it are cached per worker in a BuilderCache, or
// pooled for the package-level helpers, and reset before every handout so no
// state from one document reaches the next.
//
//	doc, err := xmlfactory.CreateDocumentWithRoot("urn:example:test", "root")
//
// Construction can optionally run with a dedicated resolution context
// installed, see ProviderOptions.WithContextSwitch and the
// XMLFACTORY_CONTEXT_SWITCH environment variable.
package xmlfactory
