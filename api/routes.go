package api

func (s *Server) setupRoutes() {
	// Health check (alvo do keep-alive)
	s.router.GET("/health", s.healthCheck)

	// Rotas públicas
	public := s.router.Group("/api")
	{
		public.POST("/auth/register", s.register)
		public.POST("/auth/login", s.login)
		public.GET("/files/:id", s.serveFile)
	}

	// Rotas de chat: aceitam usuários autenticados ou anônimos
	chat := s.router.Group("/api/chat")
	chat.Use(s.optionalAuth())
	{
		chat.GET("/current-session", s.currentSession)
		chat.POST("/send", s.sendMessage)
	}

	// Rotas de sessão: exigem conta autenticada
	sessions := s.router.Group("/api/chat/sessions")
	sessions.Use(s.authRequired())
	{
		sessions.GET("", s.listSessions)
		sessions.POST("", s.createSession)
		sessions.GET("/:id", s.getSession)
		sessions.PATCH("/:id", s.renameSession)
		sessions.DELETE("/:id", s.deleteSession)
		sessions.GET("/:id/messages", s.listMessages)
		sessions.DELETE("/:id/messages", s.clearMessages)
	}

	// QKoins
	qkoins := s.router.Group("/api/qkoins")
	qkoins.Use(s.authRequired())
	{
		qkoins.GET("/balance", s.qkoinBalance)
		qkoins.POST("/daily-reward", s.claimDailyReward)
		qkoins.POST("/claim-bonus", s.claimBonus)
		qkoins.GET("/transactions", s.qkoinTransactions)
	}

	// Perfil e uploads
	user := s.router.Group("/api")
	user.Use(s.authRequired())
	{
		user.GET("/user/profile", s.getProfile)
		user.PATCH("/user/profile", s.updateProfile)
		user.POST("/upload", s.uploadFile)
		user.DELETE("/files/:id", s.deleteFile)
	}

	// Administração
	admin := s.router.Group("/api/admin")
	admin.Use(s.adminRequired())
	{
		admin.GET("/stats", s.adminStats)
		admin.GET("/users", s.adminListUsers)
		admin.PATCH("/users/:id", s.adminUpdateUser)
		admin.DELETE("/users/:id", s.adminDeleteUser)
		admin.GET("/transactions", s.adminListTransactions)
		admin.GET("/settings", s.adminGetSettings)
		admin.PUT("/settings", s.adminUpdateSettings)
	}
}
