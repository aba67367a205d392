package cmd

import "github.com/brel-ge/kcfg-vex/internal/cache"

var defaultCacheDirFunc = cache.DefaultCacheDir
