package jitthird

import "strings"

// This file backs the VALUE/VARIABLE/CONSTANT/TO/FORGET words recovered
// from original_source/ (§14): the handful of dictionary-mutating
// interpret-time words that don't belong to the control-flow or
// arithmetic vocabularies in builtins.go.

func interpValue(it *Interp) error {
	name, ok := it.next()
	if !ok {
		return compileErrorf("VALUE", ErrExpectedWordName)
	}
	if it.w.Dict.Find(name) != nil {
		return compileErrorf(name, ErrNameExists)
	}
	v := it.w.Stacks.PopD()
	idx := it.w.Dict.Allot(1)
	it.w.Dict.SetCellAt(idx, v)
	addr := it.w.Dict.VarAddr(idx)

	e := it.w.Dict.Add(name, nil, 0, nil, nil)
	e.Kind = KindValue
	e.Data = idx
	e.Generator = func(g *Generator) { g.genPushVarValue(addr) }
	return nil
}

func interpVariable(it *Interp) error {
	name, ok := it.next()
	if !ok {
		return compileErrorf("VARIABLE", ErrExpectedWordName)
	}
	if it.w.Dict.Find(name) != nil {
		return compileErrorf(name, ErrNameExists)
	}
	idx := it.w.Dict.Allot(1)
	addr := it.w.Dict.VarAddr(idx)

	e := it.w.Dict.Add(name, nil, 0, nil, nil)
	e.Kind = KindVariable
	e.Data = idx
	e.Generator = func(g *Generator) { g.genPushVarAddr(addr) }
	return nil
}

func interpConstant(it *Interp) error {
	name, ok := it.next()
	if !ok {
		return compileErrorf("CONSTANT", ErrExpectedWordName)
	}
	if it.w.Dict.Find(name) != nil {
		return compileErrorf(name, ErrNameExists)
	}
	v := it.w.Stacks.PopD()

	e := it.w.Dict.Add(name, nil, 0, nil, nil)
	e.Kind = KindConstant
	e.Data = v
	e.Generator = func(g *Generator) { g.genLiteral(e.Data) }
	return nil
}

// compileTo handles `TO name` inside a colon definition: against a
// declared local it stores directly into the locals frame, otherwise it
// falls through to the same VALUE-cell store interpTo performs outside a
// definition.
func compileTo(c *Compiler) error {
	name, ok := c.next()
	if !ok {
		return compileErrorf("TO", ErrExpectedWordName)
	}
	if c.locals != nil {
		if off, ok := c.locals.OffsetOf(name); ok {
			c.gen().genLocalStore(off)
			return nil
		}
	}
	e := c.w.Dict.Find(name)
	if e == nil || e.Kind != KindValue {
		return compileErrorf(name, ErrUnknownWord)
	}
	addr := c.w.Dict.VarAddr(e.Data)
	c.gen().genStoreVarValue(addr)
	return nil
}

// interpTo handles `TO name` typed at the prompt, outside any definition;
// locals only exist inside a definition's frame, so this only ever
// targets a VALUE.
func interpTo(it *Interp) error {
	name, ok := it.next()
	if !ok {
		return compileErrorf("TO", ErrExpectedWordName)
	}
	e := it.w.Dict.Find(name)
	if e == nil || e.Kind != KindValue {
		return compileErrorf(name, ErrUnknownWord)
	}
	v := it.w.Stacks.PopD()
	it.w.Dict.SetCellAt(e.Data, v)
	return nil
}

// interpAllot and interpHere round out the §14 VALUE/VARIABLE/CONSTANT
// family: ALLOT reserves n raw cells without naming them, HERE reports
// the index the next allocation will start at.
func interpAllot(it *Interp) error {
	n := it.w.Stacks.PopD()
	if n > 0 {
		it.w.Dict.Allot(int(n))
	}
	return nil
}

func interpHere(it *Interp) error {
	it.w.Stacks.PushD(it.w.Dict.CurrentHere())
	return nil
}

// interpForget implements FORGET: it removes the named word and every
// word defined after it, classic-Forth style, not just the dictionary's
// single most recent entry.
func interpForget(it *Interp) error {
	name, ok := it.next()
	if !ok {
		return compileErrorf("FORGET", ErrExpectedWordName)
	}
	if it.w.Dict.Find(name) == nil {
		return compileErrorf(name, ErrUnknownWord)
	}
	for {
		e := it.w.Dict.Latest()
		if e == nil {
			return nil
		}
		isTarget := strings.EqualFold(e.Name, name)
		if err := it.w.Dict.ForgetLast(); err != nil {
			return err
		}
		if isTarget {
			return nil
		}
	}
}
