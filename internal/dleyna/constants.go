// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dleyna

// Bus names, object paths and interfaces of the dLeyna server daemon.
const (
	BusName  = "com.intel.dleyna-server"
	RootPath = "/com/intel/dLeynaServer"

	ManagerInterface   = "com.intel.dLeynaServer.Manager"
	DeviceInterface    = "com.intel.dLeynaServer.MediaDevice"
	ContainerInterface = "org.gnome.UPnP.MediaContainer2"
	ItemInterface      = "org.gnome.UPnP.MediaItem2"
	ObjectInterface    = "org.gnome.UPnP.MediaObject2"

	PropertiesInterface = "org.freedesktop.DBus.Properties"
)

// Discovery signals emitted by the manager object.
const (
	SignalFoundServer = "FoundServer"
	SignalLostServer  = "LostServer"
)

// Coarse object types.
const (
	TypeContainer = "container"
	TypeMusic     = "music"
	TypeAudio     = "audio"
	TypeVideo     = "video"
	TypeImage     = "image"
)

// Fine-grained container types.
const (
	TypeAlbum         = "container.album.musicAlbum"
	TypeArtist        = "container.person.musicArtist"
	TypeGenre         = "container.genre.musicGenre"
	TypeStorageFolder = "container.storageFolder"
	TypePlaylist      = "container.playlistContainer"
)

// Wildcard is the capability and filter value meaning "all properties".
const Wildcard = "*"
