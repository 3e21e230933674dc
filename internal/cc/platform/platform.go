// Copyright 2026 The ccpreprocess Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package platform defines a normalized representation of operating system
// and architecture combinations used to seed a preprocessor Environment
// with the predefined macros a real toolchain would have baked in for that
// target (_WIN32, __linux__, __APPLE__, and so on), so that conditional
// compilation in translation units that guard on target platform evaluates
// the way it would under the compiler being modeled.
package platform

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cc-tools/ccpreprocess/internal/cc/pp"
)

// Platform is an OS/Arch pair identifying a compilation target.
type Platform struct {
	OS   OS
	Arch Arch
}

func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// Compare orders first by OS, then by Arch, both by string ordering.
func Compare(a, b Platform) int {
	if d := cmp.Compare(a.OS, b.OS); d != 0 {
		return d
	}
	return cmp.Compare(a.Arch, b.Arch)
}

// Create canonicalizes os/arch through their alias tables and validates
// the result against the known platform lists.
func Create(os OS, arch Arch) (Platform, error) {
	platform := Platform{
		OS:   dealias(os, osAlias),
		Arch: dealias(arch, archAlias),
	}
	if !slices.Contains(allKnownOS, platform.OS) {
		return platform, fmt.Errorf("unknown OS %v, expected one of %v or an alias %v", platform.OS, allKnownOS, osAlias)
	}
	if !slices.Contains(allKnownArch, platform.Arch) {
		return platform, fmt.Errorf("unknown architecture %v, expected one of %v or an alias %v", platform.Arch, allKnownArch, archAlias)
	}
	return platform, nil
}

// OS is an operating-system identifier matching the constraint value names
// defined in @platforms//os.
type OS string

const (
	Android    OS = "android"
	ChromiumOS OS = "chromiumos"
	Emscripten OS = "emscripten"
	FreeBSD    OS = "freebsd"
	Fuchsia    OS = "fuchsia"
	Haiku      OS = "haiku"
	IOS        OS = "ios"
	Linux      OS = "linux"
	NetBSD     OS = "netbsd"
	NixOS      OS = "nixos"
	None       OS = "none" // bare-metal
	OpenBSD    OS = "openbsd"
	OSX        OS = "osx"
	QNX        OS = "qnx"
	TVOS       OS = "tvos"
	UEFI       OS = "uefi"
	VisionOS   OS = "visionos"
	VxWorks    OS = "vxworks"
	WASI       OS = "wasi"
	WatchOS    OS = "watchos"
	Windows    OS = "windows"
)

var osAlias = map[string]OS{"macos": OSX}

var allKnownOS = []OS{
	Android, ChromiumOS, Emscripten, FreeBSD, Fuchsia, Haiku, IOS,
	Linux, NetBSD, NixOS, None, OpenBSD, OSX, QNX, TVOS,
	UEFI, VisionOS, VxWorks, WASI, WatchOS, Windows,
}

// Arch is a CPU-architecture identifier matching the constraint value
// names defined in @platforms//cpu.
type Arch string

const (
	Aarch32   Arch = "aarch32"
	Aarch64   Arch = "aarch64"
	Arm6432   Arch = "arm64_32"
	Arm64e    Arch = "arm64e"
	Armv6m    Arch = "armv6-m"
	Armv7     Arch = "armv7"
	Armv7em   Arch = "armv7e-m"
	Armv7m    Arch = "armv7-m"
	Armv8m    Arch = "armv8-m"
	I386      Arch = "i386"
	Mips64    Arch = "mips64"
	Ppc32     Arch = "ppc32"
	Ppc64le   Arch = "ppc64le"
	Riscv32   Arch = "riscv32"
	Riscv64   Arch = "riscv64"
	S390x     Arch = "s390x"
	Wasm32    Arch = "wasm32"
	Wasm64    Arch = "wasm64"
	X86_32    Arch = "x86_32"
	X86_64    Arch = "x86_64"
)

var archAlias = map[string]Arch{
	"arm":   Aarch32,
	"arm64": Aarch64,
	"amd64": X86_64,
}

var allKnownArch = []Arch{
	Aarch32, Aarch64, Arm6432, Arm64e, Armv6m, Armv7, Armv7em,
	Armv7m, Armv8m, I386, Mips64, Ppc32,
	Ppc64le, Riscv32, Riscv64, S390x, Wasm32, Wasm64, X86_32, X86_64,
}

// knownPlatformMacros maps each platform to the predefined macro names a
// real toolchain would bake in for that target, filled in by init().
var knownPlatformMacros = map[Platform][]string{}

// Seed binds every predefined macro for p into env as `#define NAME 1`,
// matching a real compiler's built-in target-identification macros. Macros
// are bound in a fixed, sorted order so that seeding the same platform
// twice produces an Environment with identical All() history.
func Seed(env *pp.Environment, p Platform) {
	names := knownPlatformMacros[p]
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	for _, name := range sorted {
		env.Bind(&pp.Macro{
			Name: name,
			Body: []pp.PreprocessingToken{{Kind: pp.KindNumber, Text: "1"}},
		})
	}
}

// KnownMacros returns the predefined macro names for p without binding
// them, for tooling that wants to display or diff a platform's baseline.
func KnownMacros(p Platform) []string {
	return slices.Clone(knownPlatformMacros[p])
}

func init() {
	//----------------------------------------------------------------------
	//                                Windows
	//----------------------------------------------------------------------
	windowsArchs := []Arch{I386, X86_32, X86_64, Aarch32, Aarch64}
	addMacro("_WIN32", osArchPlatforms(Windows, windowsArchs))
	addMacro("_WIN64", osArchPlatforms(Windows, []Arch{X86_64, Aarch64}))
	addMacro("__MINGW32__", osArchPlatform(Windows, I386))
	addMacro("__MINGW64__", osArchPlatform(Windows, X86_64))
	addMacro("_M_IX86", osArchPlatform(Windows, I386))
	addMacro("_M_X64", osArchPlatform(Windows, X86_64))
	addMacro("_M_ARM", osArchPlatform(Windows, Aarch32))
	addMacro("_M_ARM64", osArchPlatform(Windows, Aarch64))

	//----------------------------------------------------------------------
	//                          Linux / Android family
	//----------------------------------------------------------------------
	linuxArchs := allKnownArch
	addMacros([]string{"linux", "__linux__", "__linux", "__gnu_linux__"}, osArchPlatforms(Linux, linuxArchs))
	addMacro("__NIX__", osArchPlatforms(NixOS, linuxArchs))
	addMacro("__NIXOS__", osArchPlatforms(NixOS, linuxArchs))

	androidArchs := []Arch{Aarch32, Aarch64, X86_32, X86_64, Riscv64}
	addMacro("__ANDROID__", osArchPlatforms(Android, androidArchs))

	chromeArchs := []Arch{X86_64, Aarch64, Riscv64}
	addMacro("__CHROMEOS__", osArchPlatforms(ChromiumOS, chromeArchs))

	unixOS := []OS{Linux, Android, ChromiumOS, NixOS, FreeBSD, NetBSD, OpenBSD, Haiku, QNX}
	addMacros([]string{"unix", "__unix", "__unix__"}, platformsMatrix(unixOS, allKnownArch))

	//----------------------------------------------------------------------
	//  WebAssembly (Emscripten & WASI)
	//----------------------------------------------------------------------
	wasmArchs := []Arch{Wasm32, Wasm64}
	addMacro("__EMSCRIPTEN__", platformsMatrix([]OS{Emscripten}, wasmArchs))
	addMacro("__wasi__", platformsMatrix([]OS{WASI}, wasmArchs))
	addMacro("__wasm__", platformsMatrix([]OS{Emscripten, WASI}, wasmArchs))
	addMacro("__wasm32__", platformsMatrix([]OS{Emscripten, WASI}, []Arch{Wasm32}))
	addMacro("__wasm64__", platformsMatrix([]OS{Emscripten, WASI}, []Arch{Wasm64}))

	//----------------------------------------------------------------------
	//  BSD family
	//----------------------------------------------------------------------
	bsdArchs := []Arch{I386, X86_64, Aarch64, Riscv64, Ppc64le}
	addMacro("__FreeBSD__", platformsMatrix([]OS{FreeBSD}, bsdArchs))
	addMacro("__NetBSD__", platformsMatrix([]OS{NetBSD}, bsdArchs))
	addMacro("__OpenBSD__", platformsMatrix([]OS{OpenBSD}, bsdArchs))

	//----------------------------------------------------------------------
	//  QNX, Haiku, Fuchsia, VxWorks, UEFI
	//----------------------------------------------------------------------
	qnxArchs := []Arch{Aarch32, Aarch64, Ppc32, Ppc64le, X86_32, X86_64}
	addMacro("__QNX__", osArchPlatforms(QNX, qnxArchs))
	addMacro("__QNXNTO__", osArchPlatforms(QNX, qnxArchs))

	haikuArchs := []Arch{X86_32, X86_64}
	addMacro("__HAIKU__", osArchPlatforms(Haiku, haikuArchs))

	fuchsiaArchs := []Arch{Aarch64, X86_64}
	addMacro("__FUCHSIA__", osArchPlatforms(Fuchsia, fuchsiaArchs))
	addMacro("__Fuchsia__", osArchPlatforms(Fuchsia, fuchsiaArchs))

	vxworksArchs := []Arch{Aarch32, Aarch64, Ppc32, Ppc64le, X86_32, X86_64}
	addMacro("__VXWORKS__", osArchPlatforms(VxWorks, vxworksArchs))
	addMacro("__vxworks", osArchPlatforms(VxWorks, vxworksArchs))

	uefiArchs := []Arch{Aarch32, Aarch64, X86_32, X86_64, Riscv64}
	addMacro("__UEFI__", osArchPlatforms(UEFI, uefiArchs))
	addMacro("__EFI__", osArchPlatforms(UEFI, uefiArchs))

	//----------------------------------------------------------------------
	//  Apple family
	//----------------------------------------------------------------------
	macArchs := []Arch{X86_64, Aarch64, Arm64e}
	iosArchs := []Arch{Aarch64, Arm64e}
	tvosArchs := []Arch{Aarch64}
	watchArchs := []Arch{Arm6432}
	visionArchs := []Arch{Aarch64}
	applePlatforms := slices.Concat(
		osArchPlatforms(OSX, macArchs),
		osArchPlatforms(IOS, iosArchs),
		osArchPlatforms(TVOS, tvosArchs),
		osArchPlatforms(WatchOS, watchArchs),
		osArchPlatforms(VisionOS, visionArchs),
	)
	addMacro("__APPLE__", applePlatforms)
	addMacro("__MACH__", applePlatforms)
	addMacro("TARGET_OS_OSX", osArchPlatforms(OSX, macArchs))
	addMacro("TARGET_OS_MAC", osArchPlatforms(OSX, macArchs))
	addMacro("TARGET_OS_IPHONE", osArchPlatforms(IOS, iosArchs))
	addMacro("TARGET_OS_IOS", osArchPlatforms(IOS, iosArchs))
	addMacro("TARGET_OS_TV", osArchPlatforms(TVOS, tvosArchs))
	addMacro("TARGET_OS_WATCH", osArchPlatforms(WatchOS, watchArchs))
	addMacro("TARGET_OS_VISION", osArchPlatforms(VisionOS, visionArchs))

	//----------------------------------------------------------------------
	//  Generic CPU-only macros
	//----------------------------------------------------------------------
	addMacros([]string{"__x86_64__", "__x86_64", "__amd64", "__amd64__"}, archOsPlatforms(X86_64, allKnownOS))
	addMacros([]string{"__i386__", "__i386"}, archOsPlatforms(I386, allKnownOS))
	addMacros([]string{"__arm__", "__arm", "__thumb__", "__thumb"}, archOsPlatforms(Aarch32, allKnownOS))
	addMacros([]string{"__aarch64__", "__arm64", "__arm64__"}, archOsPlatforms(Aarch64, allKnownOS))
	addMacros([]string{"__ARM64_32__", "__ARM64_32"}, osArchPlatform(WatchOS, Arm6432))
	addMacros([]string{"__arm64e__", "__arm64e"}, archOsPlatforms(Arm64e, []OS{OSX, IOS}))

	addMacro("__ARM_ARCH_6M__", osArchPlatform(None, Armv6m))
	addMacro("__ARM_ARCH_7__", osArchPlatform(None, Armv7))
	addMacro("__ARM_ARCH_7A__", osArchPlatform(None, Armv7))
	addMacro("__ARM_ARCH_7M__", osArchPlatform(None, Armv7m))
	addMacro("__ARM_ARCH_7EM__", osArchPlatform(None, Armv7em))
	addMacro("__ARM_ARCH_8M_BASE__", osArchPlatform(None, Armv8m))
	addMacro("__ARM_ARCH_8M_MAIN__", osArchPlatform(None, Armv8m))

	//----------------------------------------------------------------------
	//  PowerPC / MIPS / s390 / RISC-V
	//----------------------------------------------------------------------
	powerPCOS := []OS{Linux, FreeBSD, NetBSD, OpenBSD, QNX, VxWorks}
	addMacro("__powerpc__", archOsPlatforms(Ppc32, powerPCOS))
	addMacro("__PPC__", archOsPlatforms(Ppc32, powerPCOS))
	addMacro("__powerpc64__", archOsPlatforms(Ppc64le, powerPCOS))
	addMacro("__ppc64__", archOsPlatforms(Ppc64le, powerPCOS))

	mipsOS := []OS{Linux, NetBSD, OpenBSD, QNX, VxWorks}
	addMacro("__mips64", archOsPlatforms(Mips64, mipsOS))

	addMacro("__s390x__", osArchPlatform(Linux, S390x))
	addMacro("__s390__", osArchPlatform(Linux, S390x))

	riscvOS := []OS{Linux, FreeBSD, NetBSD, OpenBSD, QNX, VxWorks, Android, ChromiumOS, Fuchsia, NixOS}
	addMacro("__riscv", archOsPlatforms(Riscv64, riscvOS))
}

func addMacro(name string, platforms []Platform) {
	for _, p := range platforms {
		knownPlatformMacros[p] = append(knownPlatformMacros[p], name)
	}
}

func addMacros(names []string, platforms []Platform) {
	for _, name := range names {
		addMacro(name, platforms)
	}
}

func osArchPlatform(os OS, arch Arch) []Platform {
	return []Platform{{os, arch}}
}

func osArchPlatforms(os OS, arch []Arch) []Platform {
	return append(platformsMatrix([]OS{os}, arch), Platform{OS: os})
}

func archOsPlatforms(arch Arch, os []OS) []Platform {
	return append(platformsMatrix(os, []Arch{arch}), Platform{Arch: arch})
}

func platformsMatrix(os []OS, arch []Arch) []Platform {
	var result []Platform
	for _, o := range os {
		for _, a := range arch {
			result = append(result, Platform{OS: o, Arch: a})
		}
	}
	return result
}

func dealias[T ~string](value T, aliases map[string]T) T {
	if d, ok := aliases[string(value)]; ok {
		return d
	}
	return value
}
