package xmlfactory

import "sync"

// builderPool backs the package-level helpers. Goroutines have no stable
// identity, so builders are pooled per P instead of cached per worker; the
// reset-before-handout contract is the same.
type builderPool struct {
	provider *FactoryProvider
	pool     sync.Pool
}

func newBuilderPool(provider *FactoryProvider) *builderPool {
	return &builderPool{provider: provider}
}

func (p *builderPool) acquire() (*Builder, error) {
	if b, ok := p.pool.Get().(*Builder); ok {
		b.Reset()
		return b, nil
	}
	f, err := p.provider.Factory()
	if err != nil {
		return nil, err
	}
	b, err := f.NewBuilder()
	if err != nil {
		return nil, err
	}
	b.Reset()
	return b, nil
}

func (p *builderPool) release(b *Builder) {
	if b == nil {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

var defaultPool = sync.OnceValue(func() *builderPool {
	return newBuilderPool(DefaultProvider())
})
