package i18n

import (
	"os"
	"strings"
)

var CurrentLang = "en"

// Diccionario simple: Clave -> Mapa de idiomas
var messages = map[string]map[string]string{
	"header_title": {
		"en": "   MODLIST DOWNLOADER CONFIGURATION",
		"es": "   CONFIGURACIÓN DE MODLIST DOWNLOADER",
	},
	"intro_1": {
		"en": "This app downloads and verifies every archive of a modlist.",
		"es": "Esta aplicación descarga y verifica todos los archivos de una modlist.",
	},
	"intro_2": {
		"en": "Downloads need a logged-in session, captured through a browser window.",
		"es": "Las descargas necesitan una sesión iniciada, que se captura desde una ventana del navegador.",
	},
	"prompt_download_dir": {
		"en": "Download directory",
		"es": "Directorio de descargas",
	},
	"prompt_worklist": {
		"en": "Work list (CSV or JSON)",
		"es": "Lista de trabajo (CSV o JSON)",
	},
	"prompt_concurrency": {
		"en": "Parallel downloads",
		"es": "Descargas en paralelo",
	},
	"prompt_mode": {
		"en": "Verification mode (Hash, Size, Skip)",
		"es": "Modo de verificación (Hash, Size, Skip)",
	},
	"prompt_game": {
		"en": "Game domain (e.g. fallout4, empty to detect from the list)",
		"es": "Dominio del juego (p.ej. fallout4, vacío para detectarlo de la lista)",
	},
	"prompt_email": {
		"en": "Email for failure alerts (empty to disable)",
		"es": "Email para alertas de fallo (vacío para desactivar)",
	},
	"prompt_invalid": {
		"en": "Invalid value, keeping %v",
		"es": "Valor no válido, se mantiene %v",
	},
	"success_msg": {
		"en": "\n✅ Configuration saved to: %s",
		"es": "\n✅ Configuración guardada en: %s",
	},
	"error_mkdir": {
		"en": "Error creating config directory: %w",
		"es": "Error creando directorio de configuración: %w",
	},
	"error_save": {
		"en": "Error saving config: %w",
		"es": "Error guardando configuración: %w",
	},
	"config_missing": {
		"en": "No config file found, using defaults and MLD_* environment variables.",
		"es": "No se encontró fichero de configuración, usando valores por defecto y variables MLD_*.",
	},
	"config_read_error": {
		"en": "Error reading config: %v",
		"es": "Error leyendo la configuración: %v",
	},
	"session_present": {
		"en": "Current session token: %s",
		"es": "Token de sesión actual: %s",
	},
	"session_missing": {
		"en": "no session token configured; run 'modlist-downloader login' first",
		"es": "no hay token de sesión; ejecuta 'modlist-downloader login' primero",
	},
	"login_ask": {
		"en": "Log in now? (y/N)",
		"es": "¿Iniciar sesión ahora? (s/N)",
	},
	"login_start": {
		"en": "\n🔐 Opening the browser so you can sign in...",
		"es": "\n🔐 Abriendo el navegador para que inicies sesión...",
	},
	"login_fail": {
		"en": "capturing session: %w",
		"es": "capturando la sesión: %w",
	},
	"login_manual": {
		"en": "Sign in, then copy the value of the %s cookie from the developer tools and paste it here.",
		"es": "Inicia sesión y copia el valor de la cookie %s desde las herramientas de desarrollador y pégalo aquí.",
	},
	"login_open_fail": {
		"en": "Could not open %s automatically: %v",
		"es": "No se pudo abrir %s automáticamente: %v",
	},
	"login_empty": {
		"en": "no session value entered",
		"es": "no se introdujo ningún valor de sesión",
	},
	"login_saved": {
		"en": "Session %s saved to %s",
		"es": "Sesión %s guardada en %s",
	},
	"browser_system": {
		"en": "Using system browser: %s",
		"es": "Usando navegador del sistema: %s",
	},
	"browser_download_fail": {
		"en": "System browser failed to start, downloading a compatible build...",
		"es": "El navegador del sistema no arrancó, descargando una versión compatible...",
	},
	"browser_solving": {
		"en": "Solving bot challenge at %s",
		"es": "Resolviendo el desafío anti-bot en %s",
	},
	"browser_solved": {
		"en": "Challenge passed, %d cookies captured",
		"es": "Desafío superado, %d cookies capturadas",
	},
	"browser_nav_open": {
		"en": "👉 Sign in in the browser window.",
		"es": "👉 Inicia sesión en la ventana del navegador.",
	},
	"browser_nav_close": {
		"en": "   The session is captured automatically; closing the window cancels.",
		"es": "   La sesión se captura automáticamente; cerrar la ventana cancela.",
	},
	"worklist_loaded": {
		"en": "Loaded %d records from %s",
		"es": "Cargados %d registros de %s",
	},
	"ledger_loaded": {
		"en": "Ledger has %d entries (%s)",
		"es": "El registro tiene %d entradas (%s)",
	},
	"ledger_load_fail": {
		"en": "loading verification ledger: %w",
		"es": "cargando el registro de verificación: %w",
	},
	"history_load_fail": {
		"en": "Could not read run history, this run will not be recorded: %v",
		"es": "No se pudo leer el historial, esta ejecución no se registrará: %v",
	},
	"history_save_fail": {
		"en": "Could not save run history: %v",
		"es": "No se pudo guardar el historial: %v",
	},
	"history_empty": {
		"en": "No runs recorded yet.",
		"es": "Aún no hay ejecuciones registradas.",
	},
	"history_not_found": {
		"en": "run %q not found",
		"es": "ejecución %q no encontrada",
	},
	"history_last_ok": {
		"en": "Last complete run: %s (%s)",
		"es": "Última ejecución completa: %s (%s)",
	},
	"game_unknown": {
		"en": "game unknown: set game_id or game_domain, or use page URLs that contain the game",
		"es": "juego desconocido: define game_id o game_domain, o usa URLs que contengan el juego",
	},
	"game_found": {
		"en": "Game %s has id %d",
		"es": "El juego %s tiene id %d",
	},
	"game_lookup_fail": {
		"en": "looking up game id: %w",
		"es": "buscando el id del juego: %w",
	},
	"game_saved": {
		"en": "Game %s saved to %s",
		"es": "Juego %s guardado en %s",
	},
	"download_start": {
		"en": "🚀 Downloading %d archives to %s (%d at a time, %s verification)",
		"es": "🚀 Descargando %d archivos en %s (%d a la vez, verificación %s)",
	},
	"download_done": {
		"en": "All %d archives confirmed",
		"es": "Los %d archivos están confirmados",
	},
	"download_failures": {
		"en": "%d of %d archives failed",
		"es": "fallaron %d de %d archivos",
	},
	"download_cancelled": {
		"en": "Cancelled. Progress is saved; run again to resume.",
		"es": "Cancelado. El progreso está guardado; vuelve a ejecutar para continuar.",
	},
	"progress_starting": {
		"en": "Starting...",
		"es": "Iniciando...",
	},
	"progress_items": {
		"en": "Progress: %d/%d",
		"es": "Progreso: %d/%d",
	},
	"verify_start": {
		"en": "🔍 Checking %d archives in %s (%s verification)",
		"es": "🔍 Comprobando %d archivos en %s (verificación %s)",
	},
	"verify_done": {
		"en": "All %d archives verified in %s",
		"es": "Los %d archivos verificados en %s",
	},
	"verify_missing": {
		"en": "%d of %d archives missing or invalid",
		"es": "faltan o no son válidos %d de %d archivos",
	},
	"rename_summary": {
		"en": "Renamed: %d | Skipped (destination exists): %d | Errors: %d",
		"es": "Renombrados: %d | Omitidos (el destino existe): %d | Errores: %d",
	},
	"rename_errors": {
		"en": "Could not determine the correct name for %d files (see log above)",
		"es": "No se pudo determinar el nombre correcto de %d ficheros (ver log)",
	},
	"notifier_skipped": {
		"en": "No alert recipient configured, skipping email.",
		"es": "No hay destinatario de alertas, no se envía email.",
	},
	"notifier_sending": {
		"en": "📧 Sending alert to %s",
		"es": "📧 Enviando alerta a %s",
	},
	"notifier_fail": {
		"en": "Could not send alert: %v",
		"es": "No se pudo enviar la alerta: %v",
	},
}

// Init detecta el idioma del sistema
func Init() {
	// En Linux/Mac, la variable LANG suele ser "es_ES.UTF-8", "en_US.UTF-8", etc.
	langEnv := os.Getenv("LANG")
	if strings.HasPrefix(langEnv, "es") {
		CurrentLang = "es"
	} else {
		CurrentLang = "en"
	}
}

// T traduce una clave al idioma actual
func T(key string) string {
	if translations, ok := messages[key]; ok {
		if val, ok := translations[CurrentLang]; ok {
			return val
		}
		// Fallback a inglés si falta la traducción específica
		return translations["en"]
	}
	return key // Devuelve la clave si no existe
}
