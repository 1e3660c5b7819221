/*
Package symboscript is a tree-walking interpreter for SymboScript, a small
scripting language with object-like named scopes, formula bindings and a
native-function bridge.

Package structure is as follows:

■ scanner: Package scanner adapts lexmachine to produce token streams.

■ syntax: Package syntax implements the SymboScript lexer, AST and parser.

■ runtime: Package runtime provides the value model, the operator table and the
scope store ("vault") the interpreter executes against.

■ interp: Package interp implements the evaluator, the native bridge and the
import resolver.

The base package contains data types which are used throughout all the other packages:
tokens, spans and diagnostics.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package symboscript
