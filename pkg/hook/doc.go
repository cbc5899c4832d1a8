/*
Package hook lets a caller observe calls to methods it does not own, without
modifying that code and without altering what the call returns.

Go has no mutable method tables, so hooking is built from two explicit
primitives instead of runtime patching:

  - Wrap composes a plain function value with before/after callbacks,
    returning a new function of the identical signature. Arguments, return
    values and panics pass through unchanged.
  - Table is an indirection point for method calls. Code that wants its
    methods to be hookable routes the call through Table.Call(recv, name,
    args...); anyone may then Install a hook for one receiver, or
    InstallType a hook for every receiver of that type, and the call site
    stays untouched.

Where the after-callback's arguments come from cannot be inferred: sometimes
the artifact of interest is part of the return value, sometimes it lives on
the receiver. The PostStyle enum makes that choice explicit at install time
rather than guessing from the hook's shape.
*/
package hook
